// Package storage holds the binary-storage collaborator. The case engine
// never touches evidence bytes itself; it only records the opaque refs this
// package hands out.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Storage uploads evidence binaries and revokes them once the owning case or
// evidence item is deleted.
type Storage interface {
	Upload(ctx context.Context, name string, contents io.Reader) (string, error)
	Revoke(ctx context.Context, ref string) error
}

// Cloudinary backs Storage with a Cloudinary media folder. Refs are the
// secure delivery URLs returned at upload time.
type Cloudinary struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinary reads CLOUDINARY_URL from the environment.
func NewCloudinary(folder string) (*Cloudinary, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &Cloudinary{client: cld, folder: folder}, nil
}

// Upload stores the file and returns its delivery URL as the storage ref.
func (c *Cloudinary) Upload(ctx context.Context, name string, contents io.Reader) (string, error) {
	resp, err := c.client.Upload.Upload(ctx, contents, uploader.UploadParams{
		Folder:   c.folder,
		PublicID: publicIDFromName(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", name, err)
	}
	zap.S().Debugw("evidence uploaded", "publicId", resp.PublicID)
	return resp.SecureURL, nil
}

// Revoke destroys the asset behind the given ref. Unknown refs are treated as
// already revoked.
func (c *Cloudinary) Revoke(ctx context.Context, ref string) error {
	publicID := publicIDFromURL(ref)
	if publicID == "" {
		return nil
	}
	resp, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to destroy %q: %w", publicID, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("failed to destroy %q: %s", publicID, resp.Result)
	}
	return nil
}

// publicIDFromName strips the extension so Cloudinary does not double it.
func publicIDFromName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// publicIDFromURL recovers the public id from a delivery URL, i.e. everything
// after the version segment with the extension removed. Refs that are not
// Cloudinary delivery URLs produce an empty id.
func publicIDFromURL(ref string) string {
	const marker = "/upload/"
	i := strings.Index(ref, marker)
	if i < 0 {
		return ""
	}
	rest := ref[i+len(marker):]
	// drop the "v1234567890/" version segment if present
	if strings.HasPrefix(rest, "v") {
		if j := strings.Index(rest, "/"); j > 0 {
			if _, err := fmt.Sscanf(rest[1:j], "%d", new(int64)); err == nil {
				rest = rest[j+1:]
			}
		}
	}
	return strings.TrimSuffix(rest, path.Ext(rest))
}
