// Package metadata assembles Metaplex fungible-token metadata and pins it with its logo.
package metadata

import (
	"fmt"
	"net/url"
	"strings"

	"solana-token-minter/internal/domain"
)

// Build assembles the off-chain document for a fungible token.
// The image is listed both as the display image and as the only file.
func Build(name, symbol, description string, image domain.PinResult, attributes []domain.MetadataAttribute) *domain.MetadataDocument {
	attrs := make([]domain.MetadataAttribute, 0, len(attributes))
	attrs = append(attrs, attributes...)

	return &domain.MetadataDocument{
		Name:        strings.TrimSpace(name),
		Symbol:      strings.TrimSpace(symbol),
		Description: description,
		Image:       image.GatewayURI,
		Attributes:  attrs,
		Properties: domain.MetadataProperties{
			Files: []domain.MetadataFile{{
				URI:  image.GatewayURI,
				Type: image.MimeType,
			}},
			Category: domain.CategoryFungible,
		},
	}
}

// Validate checks doc against the metaplex-fungible/1 shape.
// Every failure wraps domain.ErrInvalidMetadata.
func Validate(doc *domain.MetadataDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", domain.ErrInvalidMetadata)
	}
	if err := checkText("name", doc.Name, domain.MaxNameLength); err != nil {
		return err
	}
	if err := checkText("symbol", doc.Symbol, domain.MaxSymbolLength); err != nil {
		return err
	}
	if err := checkURI("image", doc.Image); err != nil {
		return err
	}
	if doc.Properties.Category != domain.CategoryFungible {
		return fmt.Errorf("%w: properties.category must be %q, got %q",
			domain.ErrInvalidMetadata, domain.CategoryFungible, doc.Properties.Category)
	}
	if len(doc.Properties.Files) == 0 {
		return fmt.Errorf("%w: properties.files is empty", domain.ErrInvalidMetadata)
	}
	for i, f := range doc.Properties.Files {
		if err := checkURI(fmt.Sprintf("properties.files[%d].uri", i), f.URI); err != nil {
			return err
		}
		if f.Type == "" {
			return fmt.Errorf("%w: properties.files[%d].type is empty", domain.ErrInvalidMetadata, i)
		}
	}
	for i, a := range doc.Attributes {
		if strings.TrimSpace(a.TraitType) == "" {
			return fmt.Errorf("%w: attributes[%d].trait_type is empty", domain.ErrInvalidMetadata, i)
		}
	}
	return nil
}

func checkText(field, v string, max int) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidMetadata, field)
	}
	if len(v) > max {
		return fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidMetadata, field, max)
	}
	return nil
}

func checkURI(field, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidMetadata, field)
	}
	u, err := url.Parse(v)
	if err != nil || (u.Host == "" && u.Scheme != "ipfs") {
		return fmt.Errorf("%w: %s is not an absolute URI: %q", domain.ErrInvalidMetadata, field, v)
	}
	switch u.Scheme {
	case "https", "http", "ipfs", "ar":
	default:
		return fmt.Errorf("%w: %s has unsupported scheme %q", domain.ErrInvalidMetadata, field, u.Scheme)
	}
	return nil
}
