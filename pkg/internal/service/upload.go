// Package service 实现上传流水线：字段分类、读取、汇总、校验和提交.
//
// 一次请求的状态流转：Receiving -> Assembling -> Validating -> {Committing -> Done} | {Rejected -> Done}.
// 整个请求体读完之后才做校验，校验通过之前不会写上传目录；每个请求的临时文件在所有退出路径上释放.
package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/fileuploader/pkg/configs"
	ctxpkg "github.com/yeisme/fileuploader/pkg/context"
	"github.com/yeisme/fileuploader/pkg/internal/locale"
	"github.com/yeisme/fileuploader/pkg/internal/storage"
	"github.com/yeisme/fileuploader/pkg/internal/storage/fs"
	"github.com/yeisme/fileuploader/pkg/internal/types"
	"github.com/yeisme/fileuploader/pkg/metrics"
	"github.com/yeisme/fileuploader/pkg/queue"
	"github.com/yeisme/fileuploader/pkg/tracing"
)

// Outcome 请求结果.
type Outcome string

const (
	OutcomeCommitted Outcome = metrics.OutcomeCommitted
	OutcomeRejected  Outcome = metrics.OutcomeRejected
	OutcomeFailed    Outcome = metrics.OutcomeFailed
)

// Result 一次上传的结果，Message 是返回给客户端的文案（HTTP 200）.
type Result struct {
	Outcome   Outcome
	Message   string
	Rejection Rejection
	File      types.FileField
	Commit    CommitResult
}

// RequestMeta 请求的附加信息，用于日志和事件.
type RequestMeta struct {
	ClientIP string
}

// UploadService 处理一次完整的上传请求.
type UploadService struct {
	secret     string
	removeTemp bool
	reader     *FieldReader
	committer  *Committer
	scratch    *fs.Scratch
	catalog    *locale.Catalog
	events     *eventPublisher
}

// NewUploadService 根据配置和存储资源创建上传服务.
func NewUploadService(cfg *configs.AppConfig, mgr *storage.Manager, catalog *locale.Catalog) *UploadService {
	var pub queue.Publisher
	if mgr.MQ != nil {
		pub = mgr.MQ
	}

	return &UploadService{
		secret:     cfg.Upload.Password,
		removeTemp: cfg.Upload.RemoveTemp,
		reader:     NewFieldReader(cfg.Upload, mgr.Scratch, mgr.Pool),
		committer:  NewCommitter(mgr.Scratch, mgr.Uploads, mgr.Pool, cfg.Upload.ChunkSize),
		scratch:    mgr.Scratch,
		catalog:    catalog,
		events:     newEventPublisher(pub, cfg.Events),
	}
}

// Upload 读取 multipart 请求体并完成校验与提交.
// 返回 error 表示请求无法得到文案响应（客户端错误或内部错误），由 HTTP 层映射状态码；
// 校验失败和拷贝失败以 Result.Message 返回.
func (s *UploadService) Upload(ctx context.Context, mr *multipart.Reader, meta RequestMeta) (res Result, err error) {
	start := time.Now()
	logger := ctxpkg.Logger(ctx)

	ctx, span := tracing.StartSpan(ctx, "upload")
	defer span.End()

	var (
		fields []types.FieldInfo
		file   types.FileField
		stage  = "receive"
	)

	// 每个请求的临时文件在所有退出路径上释放
	defer func() {
		if s.removeTemp {
			s.release(ctx, fields)
		}
	}()

	defer func() {
		switch {
		case err != nil:
			tracing.RecordError(span, err)
			metrics.ObserveUpload(metrics.OutcomeFailed, 0)
			s.events.failed(ctx, queue.UploadFailedPayload{
				Stage:    stage,
				FileName: file.FileName,
				Error:    err.Error(),
				Status:   statusOf(err),
				ClientIP: meta.ClientIP,
			})
		default:
			span.SetAttributes(attribute.String("upload.outcome", string(res.Outcome)))
			metrics.ObserveUpload(string(res.Outcome), res.Commit.Size)
		}
	}()

	// Receiving
	fields, err = s.receive(ctx, mr)
	if err != nil {
		logger.Warn().Err(err).Int("fields", len(fields)).Msg("read upload body failed")
		return Result{}, err
	}

	// Assembling
	form := Assemble(fields)

	// Validating
	file, rej := Validate(form, s.secret)
	if rej != RejectNone {
		logger.Info().Str("reason", rej.String()).Str("client_ip", meta.ClientIP).Msg("upload rejected")

		s.events.rejected(ctx, queue.UploadRejectedPayload{
			Reason:   rej.String(),
			FileName: file.FileName,
			ClientIP: meta.ClientIP,
		})

		return Result{Outcome: OutcomeRejected, Message: s.catalog.Text(rej.Message()), Rejection: rej}, nil
	}

	// Committing
	stage = "commit"
	cctx, cspan := tracing.StartSpan(ctx, "upload.commit")
	commit, err := s.committer.Commit(cctx, file)
	tracing.RecordError(cspan, err)
	cspan.End()

	if err != nil {
		var ce *CopyError
		if !errors.As(err, &ce) {
			return Result{}, err
		}

		logger.Error().Err(err).Str("file", file.FileName).Msg("commit upload failed")

		s.events.failed(ctx, queue.UploadFailedPayload{
			Stage:    "commit",
			FileName: file.FileName,
			Error:    ce.Error(),
			Status:   http.StatusOK,
			ClientIP: meta.ClientIP,
		})

		return Result{Outcome: OutcomeFailed, Message: s.catalog.Text(locale.CopyFailed, ce.Err), File: file}, nil
	}

	elapsed := time.Since(start)

	logger.Info().
		Str("file", file.FileName).
		Str("path", commit.Path).
		Str("size", humanize.IBytes(uint64(commit.Size))).
		Str("content_type", commit.ContentType).
		Str("checksum", file.Checksum).
		Bool("overwrote", commit.Overwrote).
		Dur("elapsed", elapsed).
		Msg("upload committed")

	s.events.committed(ctx, queue.UploadCommittedPayload{
		File: queue.FileRef{
			Name:        file.FileName,
			Path:        commit.Path,
			Size:        commit.Size,
			Checksum:    file.Checksum,
			ContentType: commit.ContentType,
		},
		Overwrote:  commit.Overwrote,
		ClientIP:   meta.ClientIP,
		DurationMS: elapsed.Milliseconds(),
	})

	return Result{
		Outcome: OutcomeCommitted,
		Message: s.catalog.Text(locale.UploadSucceeded),
		File:    file,
		Commit:  commit,
	}, nil
}

// receive 依次读取全部字段. 出错时返回已读取的字段，便于调用方释放临时文件.
func (s *UploadService) receive(ctx context.Context, mr *multipart.Reader) ([]types.FieldInfo, error) {
	ctx, span := tracing.StartSpan(ctx, "upload.receive")
	defer span.End()

	var fields []types.FieldInfo

	for {
		part, err := mr.NextPart()
		// 只有读到结束分隔符时 NextPart 才返回未包装的 io.EOF，
		// 提前结束的请求体返回包装过的 io.EOF，按格式错误处理
		if err == io.EOF { //nolint:errorlint
			break
		}

		if err != nil {
			err = readError(ctx, err)
			tracing.RecordError(span, err)

			return fields, err
		}

		info, err := s.reader.ReadField(ctx, part)
		_ = part.Close()

		if err != nil {
			tracing.RecordError(span, err)
			return fields, err
		}

		fields = append(fields, info)
	}

	span.SetAttributes(attribute.Int("upload.fields", len(fields)))

	return fields, nil
}

// release 删除请求中创建的全部临时文件，包括被同名字段覆盖的那些.
func (s *UploadService) release(ctx context.Context, fields []types.FieldInfo) {
	for _, f := range fields {
		ff, ok := f.Data.(types.FileField)
		if !ok {
			continue
		}

		if err := s.scratch.Release(ff.TempPath); err != nil {
			logger := ctxpkg.Logger(ctx)
			logger.Warn().Err(err).Str("path", ff.TempPath).Msg("release scratch file failed")
		}
	}
}

// statusOf 返回错误对应的 HTTP 状态码.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf 导出给 HTTP 层使用.
func StatusOf(err error) int { return statusOf(err) }
