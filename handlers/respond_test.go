package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"torchtally/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("season 9: %w", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("count must not be negative: %w", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("season is not active: %w", models.ErrState), http.StatusBadRequest},
		{fmt.Errorf("username already taken: %w", models.ErrConflict), http.StatusConflict},
		{fmt.Errorf("bad credentials: %w", models.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}
