package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/velastore/tienda_backend/config"
	"github.com/velastore/tienda_backend/utils"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

const thumbnailWidth = 200

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type uploadResponse struct {
	ImageURL           string `json:"imageUrl"`
	ThumbnailURL       string `json:"thumbnailUrl,omitempty"`
	ObjectKey          string `json:"objectKey"`
	ThumbnailObjectKey string `json:"thumbnailObjectKey,omitempty"`
}

// uploadProductImageHandler accepts a multipart "image" field, stores the
// original under products/ and a thumbnail under thumbnails/.
func uploadProductImageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image field is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !imageExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}

		objectKey := fmt.Sprintf("products/%s%s", utils.GenerateUniqueFilename(), ext)

		if utils.GetStorageProvider() == utils.StorageProviderLocal {
			resp, err := storeLocal(objectKey, data)
			if err != nil {
				config.LogError(logger, "uploads.go", "uploadProductImageHandler", "local store", objectKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
				return
			}
			c.JSON(http.StatusOK, resp)
			return
		}

		ctx := c.Request.Context()
		if err := utils.UploadImageToGCS(ctx, objectKey, bytes.NewReader(data)); err != nil {
			config.LogError(logger, "uploads.go", "uploadProductImageHandler", "UploadImageToGCS", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		resp := uploadResponse{
			ImageURL:  utils.BuildObjectAccessURL(objectKey),
			ObjectKey: objectKey,
		}

		// Thumbnail generation is best-effort: a product image without a
		// thumbnail beats a failed upload.
		thumbKey, err := uploadThumbnail(c, objectKey, data)
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadProductImageHandler", "thumbnail", objectKey, err)
		} else {
			resp.ThumbnailObjectKey = thumbKey
			resp.ThumbnailURL = utils.BuildObjectAccessURL(thumbKey)
		}

		c.JSON(http.StatusOK, resp)
	}
}

func uploadThumbnail(c *gin.Context, objectKey string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(objectKey), filepath.Ext(objectKey))
	thumbKey := fmt.Sprintf("thumbnails/%s.jpg", base)
	if err := utils.UploadBytesToGCS(c.Request.Context(), thumbKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", err
	}
	return thumbKey, nil
}

// storeLocal writes the upload under UPLOADS_DIR for development setups
// without a GCS bucket.
func storeLocal(objectKey string, data []byte) (*uploadResponse, error) {
	dir := os.Getenv("UPLOADS_DIR")
	if dir == "" {
		dir = "uploads"
	}

	fullPath := filepath.Join(dir, filepath.FromSlash(objectKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, err
	}

	return &uploadResponse{
		ImageURL:  utils.BuildObjectAccessURL(objectKey),
		ObjectKey: objectKey,
	}, nil
}
