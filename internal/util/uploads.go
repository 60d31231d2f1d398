package util

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"chat-backend/internal/config"
)

func GetFullURL(r *http.Request, path string) string {
	scheme := "http"
	defaultPort := "80"
	if r.TLS != nil {
		scheme = "https"
		defaultPort = "443"
	}

	if path != "" && path[0] != '/' {
		path = "/" + path
	}

	var host string
	var port string

	if config.Conf.Domain != "" {
		host = config.Conf.Domain
		port = config.Conf.Port
	} else {
		host, port, _ = net.SplitHostPort(r.Host)
		if host == "" {
			host = r.Host
		}
		if port == "" {
			port = config.Conf.Port
		}
	}

	if len(port) > 0 && port[0] == ':' {
		port = port[1:]
	}

	if port != "" && port != defaultPort {
		host = fmt.Sprintf("%s:%s", host, port)
	}

	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

// MediaURL returns the absolute URL of a stored file, or nil when the
// record has no file.
func MediaURL(r *http.Request, storagePath string) *string {
	if storagePath == "" {
		return nil
	}
	prefix := "/" + strings.Trim(config.Conf.MediaURL, "/") + "/"
	if prefix == "//" {
		prefix = "/"
	}
	u := GetFullURL(r, prefix+storagePath)
	return &u
}
