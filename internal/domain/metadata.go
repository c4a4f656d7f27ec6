package domain

// CategoryFungible is the only category this service produces.
// Wallets use it to render the asset as a fungible token rather than an NFT.
const CategoryFungible = "fungible"

// MetadataSchemaVersion identifies the document shape accepted by Validate.
const MetadataSchemaVersion = "metaplex-fungible/1"

// MetadataDocument is the off-chain JSON document referenced by the on-chain URI.
type MetadataDocument struct {
	Name        string              `json:"name"`
	Symbol      string              `json:"symbol"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes"`
	Properties  MetadataProperties  `json:"properties"`
}

// MetadataAttribute is a single trait entry.
type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataProperties holds the file list and the category marker.
type MetadataProperties struct {
	Files    []MetadataFile `json:"files"`
	Category string         `json:"category"`
}

// MetadataFile references an asset pinned alongside the document.
type MetadataFile struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// PinResult is what the pinning provider returned for one upload.
type PinResult struct {
	IpfsHash   string // CID returned by the provider
	GatewayURI string // gateway URL for the CID
	Size       int64  // pinned size in bytes as reported by the provider
	MimeType   string // content type of the uploaded payload
	Timestamp  string // provider timestamp (RFC3339), may be empty
}

// UploadSession correlates a logo upload with the metadata document built from it.
// Corresponds to upload_sessions table in PostgreSQL.
type UploadSession struct {
	ID        string     // uuid
	Image     PinResult  // pinned logo
	Metadata  *PinResult // pinned metadata document (nullable until generated)
	Name      string     // metadata name, set with Metadata
	Symbol    string     // metadata symbol, set with Metadata
	CreatedAt int64      // creation timestamp (ms)
	UpdatedAt int64      // last update timestamp (ms)
}
