package metadata

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-minter/internal/domain"
)

var testImage = domain.PinResult{
	IpfsHash:   "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
	GatewayURI: "https://gateway.pinata.cloud/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
	MimeType:   "image/png",
}

func TestBuild_AlwaysFungible(t *testing.T) {
	inputs := []struct {
		name, symbol, description string
		attrs                     []domain.MetadataAttribute
	}{
		{"Test Token", "TEST", "", nil},
		{"  Padded  ", "PAD", "desc", []domain.MetadataAttribute{{TraitType: "tier", Value: "gold"}}},
		{"NFT-looking name #1", "N1", "looks like an nft", nil},
	}

	for _, in := range inputs {
		doc := Build(in.name, in.symbol, in.description, testImage, in.attrs)
		assert.Equal(t, domain.CategoryFungible, doc.Properties.Category)
		require.NoError(t, Validate(doc))
	}
}

func TestBuild_Shape(t *testing.T) {
	doc := Build(" Test Token ", "TEST", "A token", testImage, nil)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "Test Token", m["name"])
	assert.Equal(t, testImage.GatewayURI, m["image"])
	assert.Equal(t, []interface{}{}, m["attributes"], "attributes serialize as an empty array")

	props := m["properties"].(map[string]interface{})
	assert.Equal(t, "fungible", props["category"])
	files := props["files"].([]interface{})
	require.Len(t, files, 1)
	assert.Equal(t, "image/png", files[0].(map[string]interface{})["type"])
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.MetadataDocument)
	}{
		{"empty name", func(d *domain.MetadataDocument) { d.Name = "" }},
		{"long name", func(d *domain.MetadataDocument) { d.Name = strings.Repeat("n", 33) }},
		{"long symbol", func(d *domain.MetadataDocument) { d.Symbol = "ELEVENCHARS" }},
		{"relative image", func(d *domain.MetadataDocument) { d.Image = "logo.png" }},
		{"ftp image", func(d *domain.MetadataDocument) { d.Image = "ftp://host/logo.png" }},
		{"image category", func(d *domain.MetadataDocument) { d.Properties.Category = "image" }},
		{"missing category", func(d *domain.MetadataDocument) { d.Properties.Category = "" }},
		{"no files", func(d *domain.MetadataDocument) { d.Properties.Files = nil }},
		{"file without type", func(d *domain.MetadataDocument) { d.Properties.Files[0].Type = "" }},
		{"blank trait", func(d *domain.MetadataDocument) {
			d.Attributes = []domain.MetadataAttribute{{TraitType: " ", Value: "x"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Build("Test Token", "TEST", "", testImage, nil)
			tt.mutate(doc)
			assert.ErrorIs(t, Validate(doc), domain.ErrInvalidMetadata)
		})
	}

	assert.ErrorIs(t, Validate(nil), domain.ErrInvalidMetadata)
}

func TestValidate_AcceptsIPFSScheme(t *testing.T) {
	img := testImage
	img.GatewayURI = "ipfs://" + img.IpfsHash
	assert.NoError(t, Validate(Build("Test Token", "TEST", "", img, nil)))
}
