package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/pinning"
	"solana-token-minter/internal/storage/memory"
)

// recordingPinner captures uploads and answers with deterministic CIDs.
type recordingPinner struct {
	mu    sync.Mutex
	files []pinning.File
	err   error
}

func (p *recordingPinner) PinFile(_ context.Context, f pinning.File) (*domain.PinResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = append(p.files, f)
	if p.err != nil {
		return nil, p.err
	}
	hash := fmt.Sprintf("QmTest%d", len(p.files))
	return &domain.PinResult{
		IpfsHash:   hash,
		GatewayURI: "https://gateway.test/ipfs/" + hash,
		Size:       int64(len(f.Data)),
		MimeType:   f.MimeType,
	}, nil
}

func (p *recordingPinner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func newService(p pinning.Pinner) *Service {
	return NewService(p, memory.NewSessionStore(), 1024, nil)
}

func TestUploadAsset_RejectsWithoutNetwork(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		mime string
		want error
	}{
		{"oversize", bytes.Repeat([]byte{1}, 1025), "image/png", domain.ErrFileTooLarge},
		{"pdf", pngBytes, "application/pdf", domain.ErrUnsupportedMediaType},
		{"bmp", pngBytes, "image/bmp", domain.ErrUnsupportedMediaType},
		{"missing type", pngBytes, "", domain.ErrUnsupportedMediaType},
		{"empty", nil, "image/png", domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPinner{}
			_, err := newService(p).UploadAsset(context.Background(), tt.data, "logo", tt.mime)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, p.calls(), "no request may reach the pinning service")
		})
	}
}

func TestUploadAsset_Accepts(t *testing.T) {
	p := &recordingPinner{}
	s := newService(p)

	for _, mt := range []string{"image/png", "image/JPEG", "image/jpg", "image/gif", "image/webp", "image/svg+xml; charset=utf-8"} {
		_, err := s.UploadAsset(context.Background(), pngBytes, "../../etc/logo file.png", mt)
		require.NoError(t, err, mt)
	}
	require.Equal(t, 6, p.calls())
	assert.Equal(t, "logo_file.png", p.files[0].Name)
	assert.Equal(t, "image/jpeg", p.files[2].MimeType)
	assert.Equal(t, "image/svg+xml", p.files[5].MimeType)

	// exactly at the limit is fine
	_, err := s.UploadAsset(context.Background(), bytes.Repeat([]byte{1}, 1024), "x.png", "image/png")
	assert.NoError(t, err)
}

func TestUploadAsset_ProviderError(t *testing.T) {
	p := &recordingPinner{err: fmt.Errorf("%w: pinata status 500", domain.ErrUpstream)}
	_, err := newService(p).UploadAsset(context.Background(), pngBytes, "logo.png", "image/png")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 1, p.calls())
}

func TestBuildAndUploadMetadata(t *testing.T) {
	p := &recordingPinner{}
	s := newService(p)

	pin, err := s.BuildAndUploadMetadata(context.Background(), "Test Token", "TEST", "desc", testImage, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", pin.MimeType)

	require.Equal(t, 1, p.calls())
	assert.Equal(t, "TEST-metadata.json", p.files[0].Name)

	var doc domain.MetadataDocument
	require.NoError(t, json.Unmarshal(p.files[0].Data, &doc))
	assert.Equal(t, domain.CategoryFungible, doc.Properties.Category)
	assert.Equal(t, testImage.GatewayURI, doc.Image)
}

func TestBuildAndUploadMetadata_InvalidNeverUploads(t *testing.T) {
	p := &recordingPinner{}
	_, err := newService(p).BuildAndUploadMetadata(context.Background(), "", "TEST", "", testImage, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidMetadata)
	assert.Zero(t, p.calls())
}

func TestTwoStepUpload(t *testing.T) {
	p := &recordingPinner{}
	s := newService(p)
	ctx := context.Background()

	sess, err := s.UploadLogo(ctx, pngBytes, "logo.png", "image/png")
	require.NoError(t, err)
	_, err = uuid.Parse(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, sess.Metadata)

	updated, pin, err := s.GenerateMetadata(ctx, GenerateRequest{
		Name:      "Test Token",
		Symbol:    "TEST",
		SessionID: sess.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, sess.ID, updated.ID)
	assert.Equal(t, pin, updated.Metadata)

	stored, err := s.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Metadata)
	assert.Equal(t, pin.IpfsHash, stored.Metadata.IpfsHash)
	assert.Equal(t, "TEST", stored.Symbol)

	// the document references the session's image
	var doc domain.MetadataDocument
	require.NoError(t, json.Unmarshal(p.files[1].Data, &doc))
	assert.Equal(t, sess.Image.GatewayURI, doc.Image)
}

func TestGenerateMetadata_WithoutSession(t *testing.T) {
	s := newService(&recordingPinner{})

	sess, pin, err := s.GenerateMetadata(context.Background(), GenerateRequest{
		ImageURI: "https://cdn.example/logo.webp",
		Name:     "Test Token",
		Symbol:   "TEST",
		Attributes: []domain.MetadataAttribute{
			{TraitType: "supply", Value: "fixed"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "image/webp", sess.Image.MimeType)
	assert.Equal(t, pin, sess.Metadata)
}

func TestGenerateMetadata_Errors(t *testing.T) {
	s := newService(&recordingPinner{})
	ctx := context.Background()

	_, _, err := s.GenerateMetadata(ctx, GenerateRequest{Name: "T", Symbol: "T", SessionID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, _, err = s.GenerateMetadata(ctx, GenerateRequest{Name: "T", Symbol: "T", SessionID: "not-a-uuid"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, _, err = s.GenerateMetadata(ctx, GenerateRequest{Name: "T", Symbol: "T"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestUploadWithMetadata(t *testing.T) {
	p := &recordingPinner{}
	s := newService(p)

	sess, err := s.UploadWithMetadata(context.Background(), pngBytes, "logo.png", "image/png", "Test Token", "TEST", "")
	require.NoError(t, err)
	require.NotNil(t, sess.Metadata)
	assert.Equal(t, 2, p.calls())

	// a bad symbol fails before the logo is pinned
	_, err = s.UploadWithMetadata(context.Background(), pngBytes, "logo.png", "image/png", "Test Token", "WAYTOOLONGSYMBOL", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidMetadata))
	assert.Equal(t, 2, p.calls())
}
