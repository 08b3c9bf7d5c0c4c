package domain

// Joined comparison rows: the step-specific wide rows joiners produce.
// Each combines the fields needed to compute aggregate left/right scalars
// and to identify the individual entities behind a failed metric. They are
// ephemeral — built, filtered, and discarded within one step's evaluation.

// DecryptRow is the joined comparison row for the decrypt step. It covers
// both tenant variants: manifest-driven runs fill the manifest side,
// no-manifest runs fill the encrypted/decrypted side. Unused fields stay
// at their zero values.
type DecryptRow struct {
	EncryptedFilename  string
	ManifestFilename   string
	ManifestChecksum   string
	ManifestLineCount  int64
	DecryptedFilename  string
	DecryptedLineCount int64
	AuditFilename      string
	AuditChecksum      string
	AuditLineCount     int64
	FileMismatch       int
	LineCountMismatch  int
	ChecksumMismatch   int
}

// Fields implements FieldProvider.
func (r DecryptRow) Fields() []Field {
	return []Field{
		{"encrypted_filename", r.EncryptedFilename},
		{"manifest_filename", r.ManifestFilename},
		{"manifest_checksum", r.ManifestChecksum},
		{"manifest_linecount", r.ManifestLineCount},
		{"decrypted_filename", r.DecryptedFilename},
		{"decrypted_linecount", r.DecryptedLineCount},
		{"audit_filename", r.AuditFilename},
		{"audit_checksum", r.AuditChecksum},
		{"audit_linecount", r.AuditLineCount},
		{"file_mismatch", r.FileMismatch},
		{"linecount_mismatch", r.LineCountMismatch},
		{"checksum_mismatch", r.ChecksumMismatch},
	}
}

// ChannelIngestRow is the joined comparison row for the channel-ingest step.
type ChannelIngestRow struct {
	ChannelKey
	SuccessChannelUUID string
	RefChannelUUID     string
	Success            int
	Error              int
	NoOutput           int
	ChannelUUIDMatch   int
	// MultipleChannelUUID is 1 when more than one joined row shares this
	// row's external channel identity (partition-scoped count over the key).
	MultipleChannelUUID int
}

// Fields implements FieldProvider.
func (r ChannelIngestRow) Fields() []Field {
	return []Field{
		{"external_location_id", r.ExternalLocationID},
		{"external_account_id", r.ExternalAccountID},
		{"external_channel_id", r.ExternalChannelID},
		{"direction", r.Direction},
		{"ci_success_channel_uuid", r.SuccessChannelUUID},
		{"channel_uuid_from_reference", r.RefChannelUUID},
		{"success", r.Success},
		{"error", r.Error},
		{"no_output", r.NoOutput},
		{"channel_uuid_match", r.ChannelUUIDMatch},
		{"external_channel_multiple_channel_uuid", r.MultipleChannelUUID},
	}
}

// ExtractRow is the joined comparison row for the extract-common-AMI step.
type ExtractRow struct {
	ChannelKey
	RawReadCnt    int64
	ChannelUUID   string
	EcaSuccessCnt int64
	EcaErrorCnt   int64
	EcaTotalCnt   int64
}

// Fields implements FieldProvider.
func (r ExtractRow) Fields() []Field {
	return []Field{
		{"external_location_id", r.ExternalLocationID},
		{"external_account_id", r.ExternalAccountID},
		{"external_channel_id", r.ExternalChannelID},
		{"direction", r.Direction},
		{"raw_read_cnt", r.RawReadCnt},
		{"channel_uuid", r.ChannelUUID},
		{"eca_success_cnt", r.EcaSuccessCnt},
		{"eca_error_cnt", r.EcaErrorCnt},
		{"eca_total_cnt", r.EcaTotalCnt},
	}
}

// LoadRow is the joined comparison row for the load-common-AMI step.
type LoadRow struct {
	TenantID      int64
	DateUTC       string
	EcaSuccessCnt int64
	LcaSuccessCnt int64
}

// Fields implements FieldProvider.
func (r LoadRow) Fields() []Field {
	return []Field{
		{"tenant_id", r.TenantID},
		{"date_utc", r.DateUTC},
		{"eca_success_cnt", r.EcaSuccessCnt},
		{"lca_success_cnt", r.LcaSuccessCnt},
	}
}
