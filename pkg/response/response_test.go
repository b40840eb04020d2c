package response

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestSuccessResponse(t *testing.T) {
	t.Run("without data", func(t *testing.T) {
		resp := SuccessResponse("done")

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, "done", resp.Message)
		assert.Nil(t, resp.Data)
	})

	t.Run("with data", func(t *testing.T) {
		resp := SuccessResponse("done", map[string]string{"id": "abc"})

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.NotNil(t, resp.Data)
	})
}

func TestInvalidInputResponse(t *testing.T) {
	resp := InvalidInputResponse("Slug is reserved. Please choose another.")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "Slug is reserved. Please choose another.", resp.Message)
}

func TestValidationErrorResponse(t *testing.T) {
	type payload struct {
		Destination string `validate:"required,url"`
	}

	err := validator.New().Struct(payload{Destination: "not a url"})
	resp := ValidationErrorResponse(err)

	assert.Equal(t, StatusError, resp.Status)
	assert.NotEmpty(t, resp.Details)
}
