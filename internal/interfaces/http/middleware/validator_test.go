package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderKeyValidation(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type payload struct {
		Key string `binding:"order_key"`
	}

	assert.NoError(t, v.Struct(payload{Key: "m1-1001"}))
	assert.NoError(t, v.Struct(payload{Key: "-1001"}), "empty merchant half is a coerced key, not an invalid one")
	assert.NoError(t, v.Struct(payload{Key: "m-1-sub"}), "order half may itself contain separators")
	assert.Error(t, v.Struct(payload{Key: ""}))
	assert.Error(t, v.Struct(payload{Key: "nohyphen"}))
	assert.Error(t, v.Struct(payload{Key: "-"}), "a bare separator names no order")
	assert.Error(t, v.Struct(payload{Key: "m1-"}))
	assert.Error(t, v.Struct(payload{Key: "m1-   "}))
}
