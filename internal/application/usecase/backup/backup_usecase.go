package backup

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// DumpFunc produces a database dump for dsn.
type DumpFunc func(ctx context.Context, dsn string) ([]byte, error)

// PgDump runs pg_dump in custom format.
func PgDump(ctx context.Context, dsn string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+dsn, "--format=c")

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pg_dump failed: %w: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}

type BackupUseCase struct {
	dsn     string
	bucket  string
	storage service.ObjectStorage
	dump    DumpFunc
	logger  logger.Logger
	now     func() time.Time
}

func NewBackupUseCase(dsn, bucket string, storage service.ObjectStorage, dump DumpFunc, log logger.Logger) *BackupUseCase {
	if dump == nil {
		dump = PgDump
	}
	return &BackupUseCase{
		dsn:     dsn,
		bucket:  bucket,
		storage: storage,
		dump:    dump,
		logger:  log,
		now:     time.Now,
	}
}

type BackupOutput struct {
	Path string
	URL  string
	Size int
}

// Execute dumps the database and stores it under database/ in the backup
// bucket.
func (uc *BackupUseCase) Execute(ctx context.Context) (*BackupOutput, error) {
	uc.logger.Info("Starting database backup...")

	data, err := uc.dump(ctx, uc.dsn)
	if err != nil {
		return nil, apperror.NewInternal("database dump failed", err)
	}

	path := fmt.Sprintf("database/backup-%s.dump", uc.now().UTC().Format("2006-01-02_15-04-05"))
	if err := uc.storage.Upload(ctx, uc.bucket, path, bytes.NewReader(data)); err != nil {
		return nil, apperror.NewInternal("failed to upload backup", err)
	}

	out := &BackupOutput{Path: path, URL: uc.storage.PublicURL(uc.bucket, path), Size: len(data)}
	uc.logger.Info("Database backup completed and uploaded successfully",
		zap.String("path", out.Path),
		zap.Int("size", out.Size),
	)
	return out, nil
}
