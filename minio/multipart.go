package minio

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/objstore/core"
	"github.com/jmgilman/objstore/minio/internal/errs"
)

// CreateMultipart implements core.Multipart by opening a server-side
// multipart upload.
func (m *MinioStore) CreateMultipart(ctx context.Context, location core.Path) (*core.MultipartUpload, error) {
	if location.IsRoot() {
		return nil, core.OpErrorf("create_multipart", location, "%w: empty location", core.ErrInvalidInput)
	}

	id, err := m.core.NewMultipartUpload(ctx, m.bucket, m.key(location), minio.PutObjectOptions{})
	if err != nil {
		return nil, core.OpError("create_multipart", location, errs.Translate(err))
	}
	return &core.MultipartUpload{ID: id, Location: location}, nil
}

// PutPart implements core.Multipart. Non-final parts must meet the
// server's minimum part size (5 MiB on S3).
func (m *MinioStore) PutPart(ctx context.Context, u *core.MultipartUpload, partNumber int, data []byte) (core.Part, error) {
	if err := core.ValidateNextPart(u, partNumber); err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, err)
	}

	obj, err := m.core.PutObjectPart(ctx, m.bucket, m.key(u.Location), u.ID, partNumber,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectPartOptions{})
	if err != nil {
		return core.Part{}, core.OpError("put_part", u.Location, errs.Translate(err))
	}

	part := core.Part{Number: obj.PartNumber, ETag: strings.Trim(obj.ETag, `"`)}
	u.Parts = append(u.Parts, part)
	return part, nil
}

// CompleteMultipart implements core.Multipart. The server assembles
// the parts; completing an aborted or unknown session fails.
func (m *MinioStore) CompleteMultipart(ctx context.Context, u *core.MultipartUpload) (core.ObjectMeta, error) {
	if len(u.Parts) == 0 {
		return core.ObjectMeta{}, core.OpErrorf("complete_multipart", u.Location, "%w: no parts uploaded", core.ErrInvalidInput)
	}

	parts := make([]minio.CompletePart, 0, len(u.Parts))
	for _, part := range u.Parts {
		parts = append(parts, minio.CompletePart{PartNumber: part.Number, ETag: part.ETag})
	}

	info, err := m.core.CompleteMultipartUpload(ctx, m.bucket, m.key(u.Location), u.ID, parts, minio.PutObjectOptions{})
	if err != nil {
		return core.ObjectMeta{}, core.OpError("complete_multipart", u.Location, errs.Translate(err))
	}

	meta := core.ObjectMeta{
		Location:     u.Location,
		Size:         info.Size,
		LastModified: info.LastModified.UTC(),
		ETag:         strings.Trim(info.ETag, `"`),
	}
	if meta.Size == 0 || meta.LastModified.IsZero() {
		stat, err := m.client.StatObject(ctx, m.bucket, m.key(u.Location), minio.StatObjectOptions{})
		if err == nil {
			meta.Size = stat.Size
			meta.LastModified = stat.LastModified.UTC()
		}
	}
	return meta, nil
}

// AbortMultipart implements core.Multipart. The server forgets aborted
// sessions, so a repeated abort reports success.
func (m *MinioStore) AbortMultipart(ctx context.Context, u *core.MultipartUpload) error {
	err := m.core.AbortMultipartUpload(ctx, m.bucket, m.key(u.Location), u.ID)
	if err != nil {
		translated := errs.Translate(err)
		if errors.Is(translated, core.ErrNotFound) {
			return nil
		}
		return core.OpError("abort_multipart", u.Location, translated)
	}
	return nil
}
