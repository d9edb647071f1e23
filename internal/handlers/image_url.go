package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/rentitout/backend/internal/config"
)

// Hosts listing photos may be linked from besides our own bucket.
var allowedImageHosts = []string{
	"r2.dev",
	"images.unsplash.com",
	"res.cloudinary.com",
	"imagedelivery.net",
}

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Some CDNs serve images without extensions
var noExtensionHosts = []string{"images.unsplash.com", "imagedelivery.net", "res.cloudinary.com"}

const maxImageURLLength = 2048

// ValidateImageURL checks that a listing photo is an https image on the
// configured bucket or a known image host.
func ValidateImageURL(imageURL string) error {
	if len(imageURL) > maxImageURLLength {
		return errors.New("image URL too long (max 2048 characters)")
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return errors.New("image URL cannot be empty")
	}

	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" {
		return errors.New("invalid image URL format")
	}
	if parsed.Scheme != "https" {
		return errors.New("only HTTPS image URLs are allowed")
	}

	host := strings.ToLower(parsed.Hostname())
	if !IsAllowedImageHost(host) {
		return errors.New("image host not allowed, upload the photo instead")
	}

	lowerPath := strings.ToLower(parsed.Path)
	for _, ext := range allowedImageExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return nil
		}
	}
	if hostMatches(host, noExtensionHosts) {
		return nil
	}
	return errors.New("URL must point to an image file (.jpg, .jpeg, .png, .webp)")
}

// IsAllowedImageHost reports whether host is the public bucket domain or
// one of the allowlisted image hosts.
func IsAllowedImageHost(host string) bool {
	if cfg := config.AppConfig; cfg != nil && cfg.R2PublicURL != "" {
		if u, err := url.Parse(cfg.R2PublicURL); err == nil && strings.EqualFold(u.Hostname(), host) {
			return true
		}
	}
	return hostMatches(host, allowedImageHosts)
}

func hostMatches(host string, allowed []string) bool {
	for _, a := range allowed {
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}
