package qc

// Names of the virtual tables the external catalog must register before the
// QC engine runs. Each earlier pipeline stage produces one or more of them.
const (
	TableEncrypted            = "encrypted"
	TableDecrypted            = "decrypted"
	TableAudit                = "audit"
	TableManifest             = "manifest"
	TableChannelIngestSuccess = "channel_ingest_success"
	TableChannelIngestError   = "channel_ingest_error"
	TableChannelMapReference  = "channel_map_reference"
	TableExtractSuccess       = "extract_common_ami_success"
	TableExtractError         = "extract_common_ami_error"
	TableLoadSuccess          = "load_common_ami_success"
)

// Audit event types consumed by the QC engine.
const (
	eventDecryptSuccess = "DECRYPT_SUCCESS"
	eventChannelIngest  = "CHANNEL_INGEST"
)
