package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreateCORSMiddleware(t *testing.T) {
	t.Run("disabled returns nil", func(t *testing.T) {
		middleware := createCORSMiddleware(false, "https://example.com", testLogger())
		assert.Nil(t, middleware)
	})

	t.Run("enabled without origins returns nil", func(t *testing.T) {
		middleware := createCORSMiddleware(true, "", testLogger())
		assert.Nil(t, middleware)
	})

	t.Run("enabled with whitespace-only origins returns nil", func(t *testing.T) {
		middleware := createCORSMiddleware(true, " , ", testLogger())
		assert.Nil(t, middleware)
	})

	t.Run("allowed origin gets CORS headers", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		router := gin.New()
		router.Use(createCORSMiddleware(true, "https://example.com", testLogger()))
		router.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"pong": true})
		})

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "https://a.com", []string{"https://a.com"}},
		{
			"multiple with whitespace",
			" https://a.com , https://b.com ",
			[]string{"https://a.com", "https://b.com"},
		},
		{"only separators", ",,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOrigins(tt.input))
		})
	}
}
