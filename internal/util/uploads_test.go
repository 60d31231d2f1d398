package util

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/config"
)

func TestGetFullURL(t *testing.T) {
	saved := config.Conf
	t.Cleanup(func() { config.Conf = saved })

	config.Conf = config.ServerConfig{Port: ":8080"}
	req := httptest.NewRequest("GET", "/", nil)
	req.Host = "chat.local:9000"
	assert.Equal(t, "http://chat.local:9000/media/x.png", GetFullURL(req, "media/x.png"))

	config.Conf = config.ServerConfig{Port: ":80", Domain: "chat.example.com"}
	assert.Equal(t, "http://chat.example.com/media/x.png", GetFullURL(req, "/media/x.png"))
}

func TestMediaURL(t *testing.T) {
	saved := config.Conf
	t.Cleanup(func() { config.Conf = saved })
	config.Conf = config.ServerConfig{Port: ":80", Domain: "chat.example.com", MediaURL: "/media/"}

	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, MediaURL(req, ""))

	u := MediaURL(req, "server/1/server_icons/icon.png")
	require.NotNil(t, u)
	assert.Equal(t, "http://chat.example.com/media/server/1/server_icons/icon.png", *u)
}
