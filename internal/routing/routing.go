// Package routing assigns output file names and URLs to a sorted post list.
//
// Two modes exist. In md5 mode a post's identifier is the first IDLength hex
// characters of the MD5 of its raw Markdown body, so names survive reordering
// and date edits; collisions inside that prefix are neither detected nor
// resolved. In sequential mode the file name is the post's 1-based rank in the
// date-sorted list, so any insertion, removal or reordering renumbers posts.
package routing

import (
	"crypto/md5" //nolint:gosec // naming digest, not a security boundary
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// IDLength is the number of hex characters kept from the body digest.
const IDLength = 5

// ContentID returns the md5-mode identifier for a raw body.
func ContentID(body []byte) string {
	sum := md5.Sum(body) //nolint:gosec
	return hex.EncodeToString(sum[:])[:IDLength]
}

// Assign sets ID, FileName and URL on every post. posts must already be in
// final listing order. The result depends only on that order, the bodies and cfg.
func Assign(posts []*content.Post, cfg config.RoutingConfig) error {
	for i, p := range posts {
		switch cfg.Type {
		case config.RoutingMD5:
			p.ID = ContentID(p.RawBody)
			p.FileName = p.ID + ".html"
		case config.RoutingSequential:
			p.ID = ""
			p.FileName = strconv.Itoa(i+1) + ".html"
		default:
			return fmt.Errorf("unknown routing type %q", cfg.Type)
		}
		p.URL = JoinURL(cfg.BasePath, p.FileName)
	}
	return nil
}

// JoinURL joins a base path and a file name with exactly one slash.
func JoinURL(basePath, fileName string) string {
	base := strings.TrimRight(basePath, "/")
	return base + "/" + strings.TrimLeft(fileName, "/")
}
