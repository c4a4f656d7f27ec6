package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/observability"
	"solana-token-minter/internal/pinning"
	"solana-token-minter/internal/storage"
)

// allowedImageTypes is the logo allow-list.
var allowedImageTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

const metadataMimeType = "application/json"

// Service validates uploads, assembles documents and tracks two-step upload sessions.
type Service struct {
	pinner   pinning.Pinner
	sessions storage.SessionStore
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. maxBytes bounds a single asset upload.
func NewService(pinner pinning.Pinner, sessions storage.SessionStore, maxBytes int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pinner:   pinner,
		sessions: sessions,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// MaxBytes returns the asset size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// AllowedImageType reports whether mimeType (parameters ignored) is an accepted logo type.
func AllowedImageType(mimeType string) bool {
	return allowedImageTypes[normalizeMime(mimeType)]
}

// UploadAsset pins a logo. Size and type are checked before any network call.
func (s *Service) UploadAsset(ctx context.Context, data []byte, filename, mimeType string) (*domain.PinResult, error) {
	if len(data) == 0 {
		observability.RecordUploadReject("empty")
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidRequest)
	}
	if int64(len(data)) > s.maxBytes {
		observability.RecordUploadReject("too_large")
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(data), s.maxBytes)
	}
	mt := normalizeMime(mimeType)
	if !allowedImageTypes[mt] {
		observability.RecordUploadReject("media_type")
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, mimeType)
	}

	pin, err := s.pinner.PinFile(ctx, pinning.File{
		Name:     sanitizeFilename(filename, "logo"),
		MimeType: mt,
		Data:     data,
		Kind:     "image",
	})
	if err != nil {
		return nil, fmt.Errorf("pin asset: %w", err)
	}

	s.logger.Info("asset pinned",
		zap.String("cid", pin.IpfsHash),
		zap.String("mime", mt),
		zap.Int("bytes", len(data)))
	return pin, nil
}

// BuildAndUploadMetadata assembles, validates and pins the metadata document for image.
func (s *Service) BuildAndUploadMetadata(ctx context.Context, name, symbol, description string, image domain.PinResult, attributes []domain.MetadataAttribute) (*domain.PinResult, error) {
	doc := Build(name, symbol, description, image, attributes)
	if err := Validate(doc); err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	pin, err := s.pinner.PinFile(ctx, pinning.File{
		Name:     sanitizeFilename(doc.Symbol, "token") + "-metadata.json",
		MimeType: metadataMimeType,
		Data:     body,
		Kind:     "metadata",
	})
	if err != nil {
		return nil, fmt.Errorf("pin metadata: %w", err)
	}

	s.logger.Info("metadata pinned",
		zap.String("cid", pin.IpfsHash),
		zap.String("symbol", doc.Symbol),
		zap.String("schema", domain.MetadataSchemaVersion))
	return pin, nil
}

// UploadLogo pins the logo and opens an upload session for the follow-up metadata step.
func (s *Service) UploadLogo(ctx context.Context, data []byte, filename, mimeType string) (*domain.UploadSession, error) {
	pin, err := s.UploadAsset(ctx, data, filename, mimeType)
	if err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	sess := &domain.UploadSession{
		ID:        uuid.NewString(),
		Image:     *pin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create upload session: %w", err)
	}
	return sess, nil
}

// GenerateRequest is the input of the second upload step.
type GenerateRequest struct {
	ImageURI    string // may be empty when SessionID names a session with a pinned image
	Name        string
	Symbol      string
	Description string
	SessionID   string // optional; a new session is opened when empty
	Attributes  []domain.MetadataAttribute
}

// GenerateMetadata builds and pins the document and records it on the session.
func (s *Service) GenerateMetadata(ctx context.Context, req GenerateRequest) (*domain.UploadSession, *domain.PinResult, error) {
	var sess *domain.UploadSession
	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			return nil, nil, fmt.Errorf("%w: sessionId is not a uuid", domain.ErrInvalidRequest)
		}
		found, err := s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, req.SessionID)
			}
			return nil, nil, fmt.Errorf("load upload session: %w", err)
		}
		sess = found
	}

	image, err := resolveImage(req.ImageURI, sess)
	if err != nil {
		return nil, nil, err
	}

	pin, err := s.BuildAndUploadMetadata(ctx, req.Name, req.Symbol, req.Description, image, req.Attributes)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UnixMilli()
	name, symbol := strings.TrimSpace(req.Name), strings.TrimSpace(req.Symbol)

	if sess == nil {
		sess = &domain.UploadSession{
			ID:        uuid.NewString(),
			Image:     image,
			Metadata:  pin,
			Name:      name,
			Symbol:    symbol,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.sessions.Create(ctx, sess); err != nil {
			return nil, nil, fmt.Errorf("create upload session: %w", err)
		}
		return sess, pin, nil
	}

	if err := s.sessions.AttachMetadata(ctx, sess.ID, *pin, name, symbol, now); err != nil {
		return nil, nil, fmt.Errorf("attach metadata to session: %w", err)
	}
	sess.Metadata = pin
	sess.Name, sess.Symbol, sess.UpdatedAt = name, symbol, now
	return sess, pin, nil
}

// UploadWithMetadata runs both steps in one call.
func (s *Service) UploadWithMetadata(ctx context.Context, data []byte, filename, mimeType, name, symbol, description string) (*domain.UploadSession, error) {
	// validate text before pinning anything
	draft := Build(name, symbol, description, domain.PinResult{GatewayURI: "https://placeholder.invalid/x", MimeType: "image/png"}, nil)
	if err := Validate(draft); err != nil {
		return nil, err
	}

	sess, err := s.UploadLogo(ctx, data, filename, mimeType)
	if err != nil {
		return nil, err
	}
	sess, _, err = s.GenerateMetadata(ctx, GenerateRequest{
		Name:        name,
		Symbol:      symbol,
		Description: description,
		SessionID:   sess.ID,
	})
	return sess, err
}

// resolveImage picks the image reference for a document.
// An explicit URI wins; otherwise the session's pinned image is used.
func resolveImage(imageURI string, sess *domain.UploadSession) (domain.PinResult, error) {
	imageURI = strings.TrimSpace(imageURI)
	if imageURI == "" {
		if sess == nil {
			return domain.PinResult{}, fmt.Errorf("%w: imageUri or sessionId is required", domain.ErrInvalidRequest)
		}
		return sess.Image, nil
	}
	if sess != nil && sess.Image.GatewayURI == imageURI {
		return sess.Image, nil
	}

	img := domain.PinResult{GatewayURI: imageURI, MimeType: mime.TypeByExtension(path.Ext(imageURI))}
	if !AllowedImageType(img.MimeType) {
		// gateway URLs usually carry no extension; wallets only need an image/* hint
		img.MimeType = "image/png"
	}
	img.MimeType = normalizeMime(img.MimeType)
	return img, nil
}

func normalizeMime(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		mt = base
	}
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	return mt
}

// sanitizeFilename keeps the base name and replaces characters outside [A-Za-z0-9._-].
func sanitizeFilename(name, fallback string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return fallback
	}
	return out
}
