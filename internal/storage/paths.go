package storage

import (
	"fmt"
	"path"
	"strings"
)

// Upload paths are derived from the owning record's id and a fixed segment.

func CategoryIconPath(categoryID uint, filename string) string {
	return fmt.Sprintf("category/%d/category_icon/%s", categoryID, baseName(filename))
}

func ChannelIconPath(channelID uint, filename string) string {
	return fmt.Sprintf("server/%d/server_icons/%s", channelID, baseName(filename))
}

func ChannelBannerPath(channelID uint, filename string) string {
	return fmt.Sprintf("server/%d/server_banners/%s", channelID, baseName(filename))
}

// baseName strips any client-supplied directories from filename.
func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "upload"
	}
	return name
}
