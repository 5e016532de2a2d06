package ingestion

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	pkgcontext "github.com/jafarkuku/preqin-task/pkg/context"
	"github.com/jafarkuku/preqin-task/pkg/ingest"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/redis"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// maxUploadSize caps ingestion CSV uploads (20MB)
const maxUploadSize = 20 * 1024 * 1024

// lockTTL bounds how long an upload lock is held if a run crashes mid-flight
const lockTTL = 10 * time.Minute

// Register registers ingestion routes
func Register(g *echo.Group) {
	g.POST("", Upload)
}

// Upload runs an ingestion for the attached CSV file. Identical uploads are
// single-flight: a second request for the same file content while a run is in
// progress gets 409.
func Upload(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "ingestion_handler.Upload")
	defer span.End()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxUploadSize {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to open file")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	if len(content) > maxUploadSize {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	jobID := uuid.New().String()
	ctx = pkgcontext.SetJobID(ctx, jobID)

	ctx, processor, err := ectoinject.GetContext[*ingest.Processor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get processor")
	}
	ctx, locker, err := ectoinject.GetContext[*redis.Locker](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get locker")
	}

	checksum := sha256.Sum256(content)
	lockKey := "ingest:" + hex.EncodeToString(checksum[:])

	var report *models.IngestionReport
	err = locker.WithLock(ctx, lockKey, lockTTL, func() error {
		report = processor.Process(ctx, bytes.NewReader(content), jobID)
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return httperror.NewHTTPError(http.StatusConflict, "an ingestion for this file is already running")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to run ingestion")
	}

	status := http.StatusOK
	if report.Status == models.IngestionStatusFailed {
		status = http.StatusUnprocessableEntity
	}

	return c.JSON(status, report)
}
