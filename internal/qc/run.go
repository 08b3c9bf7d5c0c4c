package qc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"amiqc/internal/config"
	"amiqc/internal/domain"
)

// Runner sequences the QC run: setup, the four ingest-step checks, the
// unioned report, and persistence. Steps run strictly in order; completed
// step records are threaded through the run state, never package state, so
// repeated runs in one process cannot cross-contaminate.
type Runner struct {
	cfg      *config.Config
	catalog  domain.TableCatalog
	archiver *Archiver
	history  domain.RunStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner for one tenant configuration.
func NewRunner(cfg *config.Config, catalog domain.TableCatalog, archiver *Archiver, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		catalog:  catalog,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// SetHistory attaches an optional QC-run history store. Insert failures are
// logged, not fatal — the report is the product, history is a convenience.
func (r *Runner) SetHistory(store domain.RunStore) { r.history = store }

// SetClock overrides the evaluation clock.
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// RunArtifacts is everything a completed QC run produced.
type RunArtifacts struct {
	Records         []domain.QcRecord
	Summary         []domain.SummaryRow
	Rollup          []domain.RollupRead
	SummaryLocation string
	ReportLocation  string
}

// runState carries the setup products each step reads.
type runState struct {
	summary   []domain.SummaryRow
	channels  []domain.IngestedChannel
	dateToken string
}

// Run executes the full QC sequence. A run either produces a complete
// report or aborts with the first unhandled fault; QC mismatches are data,
// not faults, and never abort.
func (r *Runner) Run(ctx context.Context) (*RunArtifacts, error) {
	logger := r.logger.With("tenant", r.cfg.TenantID, "execution_date", r.cfg.ExecutionDate)
	logger.Info("starting qc run")

	dateToken, err := r.cfg.ExecutionDateTenantFormat()
	if err != nil {
		return nil, err
	}

	// Setup: common format, daily summary, rollup view.
	common, err := r.commonReads(ctx)
	if err != nil {
		return nil, err
	}
	summary := BuildSummary(common)

	// The summary save is the one tolerated persistence failure: the
	// in-memory summary keeps the run alive for downstream steps.
	summaryLoc, err := r.archiver.SaveSummary(ctx, summary)
	if err != nil {
		logger.Error("saving ami summary failed, continuing with in-memory summary", "error", err)
		summaryLoc = ""
	}

	channelsRel, err := r.catalog.Table(ctx, TableChannelIngestSuccess)
	if err != nil {
		return nil, err
	}
	channels, err := ExtractIngestedChannels(channelsRel)
	if err != nil {
		return nil, err
	}
	rollup, err := BuildRollup(common, channels)
	if err != nil {
		return nil, err
	}

	st := &runState{summary: summary, channels: channels, dateToken: dateToken}

	var records []domain.QcRecord
	steps := []struct {
		step int
		fn   func(context.Context, *slog.Logger, *runState) (domain.QcRecord, error)
	}{
		{StepDecrypt, r.decryptStep},
		{StepChannelIngest, r.channelIngestStep},
		{StepExtractCommonAmi, r.extractStep},
		{StepLoadCommonAmi, r.loadStep},
	}
	for _, s := range steps {
		name, err := StepName(s.step)
		if err != nil {
			return nil, err
		}
		stepLogger := logger.With("step", s.step, "step_name", name)
		stepLogger.Info("starting qc step")
		rec, err := s.fn(ctx, stepLogger, st)
		if err != nil {
			return nil, fmt.Errorf("qc step %d (%s): %w", s.step, name, err)
		}
		records = append(records, rec)
	}

	report := UnionQcOutput(records)
	reportLoc, err := r.archiver.SaveReport(ctx, report)
	if err != nil {
		return nil, err
	}

	if r.history != nil {
		run := &domain.QcRun{
			ID:            uuid.NewString(),
			TenantID:      r.cfg.TenantID,
			ExecutionDate: r.cfg.ExecutionDate,
			CreatedAt:     r.now().UTC(),
			Records:       report,
		}
		if err := r.history.InsertRun(ctx, run); err != nil {
			logger.Warn("recording qc run history failed", "error", err)
		}
	}

	logger.Info("qc run complete", "steps", len(report), "report", reportLoc)
	return &RunArtifacts{
		Records:         report,
		Summary:         summary,
		Rollup:          rollup,
		SummaryLocation: summaryLoc,
		ReportLocation:  reportLoc,
	}, nil
}

// commonReads translates the decrypted raw AMI table to the common QC format.
func (r *Runner) commonReads(ctx context.Context) ([]domain.CommonRead, error) {
	rel, err := r.catalog.Table(ctx, TableDecrypted)
	if err != nil {
		return nil, err
	}
	loc, err := r.cfg.Location()
	if err != nil {
		return nil, err
	}
	return RawToCommon(rel, r.cfg.Columns, r.cfg.ConsumptionCodes, loc)
}

// decryptStep reconciles delivered files against the ingest audit: file
// counts, line counts, and the checksum fingerprint. Tenants without a
// manifest compare the encrypted drop against the decrypted summary instead,
// and the checksum metric degenerates to a 0 == 0 pass.
func (r *Runner) decryptStep(ctx context.Context, logger *slog.Logger, st *runState) (domain.QcRecord, error) {
	encryptedRel, err := r.catalog.Table(ctx, TableEncrypted)
	if err != nil {
		return domain.QcRecord{}, err
	}
	encrypted, err := ExtractEncrypted(encryptedRel)
	if err != nil {
		return domain.QcRecord{}, err
	}
	auditRel, err := r.catalog.Table(ctx, TableAudit)
	if err != nil {
		return domain.QcRecord{}, err
	}
	audit, err := ExtractDecryptAudit(auditRel, st.dateToken, r.cfg.RawAmiHasHeaders)
	if err != nil {
		return domain.QcRecord{}, err
	}
	decrypted := DecryptedFiles(st.summary)

	rows := JoinDecryptNoManifest(encrypted, audit, decrypted)

	var auditLines, decryptedLines int64
	var auditChecksums []string
	for _, a := range audit {
		auditLines += a.LineCount
		auditChecksums = append(auditChecksums, a.Checksum)
	}
	for _, d := range decrypted {
		decryptedLines += d.LineCount
	}

	fileCounts := countPair(int64(len(encrypted)), int64(len(decrypted)))
	lineCounts := countPair(decryptedLines, auditLines)
	checksums := countPair(0, 0)

	if r.cfg.HasManifest {
		manifestRel, err := r.catalog.Table(ctx, TableManifest)
		if err != nil {
			return domain.QcRecord{}, err
		}
		manifest, err := ExtractManifest(manifestRel, r.cfg.Columns, r.cfg.ManifestCountsHeaders)
		if err != nil {
			return domain.QcRecord{}, err
		}
		rows = JoinDecryptManifest(manifest, audit)

		var manifestLines int64
		var manifestChecksums []string
		for _, m := range manifest {
			manifestLines += m.LineCount
			manifestChecksums = append(manifestChecksums, m.Checksum)
		}
		fileCounts = countPair(int64(len(manifest)), int64(len(audit)))
		lineCounts = countPair(manifestLines, auditLines)
		checksums = scalarPair{
			left:  ChecksumFingerprint(manifestChecksums),
			right: ChecksumFingerprint(auditChecksums),
		}
	}

	values := map[int]scalarPair{1: fileCounts, 2: lineCounts, 3: checksums}
	metrics, err := runStepMetrics(ctx, logger, r.archiver, decryptMetrics, values, rows, r.now())
	if err != nil {
		return domain.QcRecord{}, err
	}

	reference := map[string]string{
		"ami_summary": r.cfg.Paths.SaveAmiSummary,
		"audit":       r.cfg.Paths.Audit,
		"decrypted":   r.cfg.Paths.Decrypted,
		"encrypted":   r.cfg.Paths.Encrypted,
		"manifest":    r.cfg.Paths.Manifest,
	}
	misc := map[int]miscEntry{
		1: {Name: "Has Manifest", Value: r.cfg.HasManifest},
		2: {Name: "Manifest Counts Headers", Value: r.cfg.ManifestCountsHeaders},
		3: {Name: "Raw AMI Has Headers", Value: r.cfg.RawAmiHasHeaders},
	}
	return buildRecord(StepDecrypt, r.cfg.ExecutionDateYMD(), metrics, reference, misc)
}

// channelIngestStep reconciles raw channels against the channel-ingest
// output and the reference channel map.
func (r *Runner) channelIngestStep(ctx context.Context, logger *slog.Logger, st *runState) (domain.QcRecord, error) {
	refRel, err := r.catalog.Table(ctx, TableChannelMapReference)
	if err != nil {
		return domain.QcRecord{}, err
	}
	refs, err := ExtractChannelMapRef(refRel)
	if err != nil {
		return domain.QcRecord{}, err
	}
	raw := DistinctRawChannels(st.summary)
	errRel, err := r.catalog.Table(ctx, TableChannelIngestError)
	if err != nil {
		return domain.QcRecord{}, err
	}
	errored, err := ExtractChannelIngestErrors(errRel)
	if err != nil {
		return domain.QcRecord{}, err
	}

	joined := JoinChannelIngest(refs, raw, st.channels, errored)

	rawCnt := int64(len(raw))
	successCnt := int64(len(st.channels))
	errorCnt := int64(len(errored))
	correct := CorrectlyMappedCount(joined)
	multiple := MultipleMappedChannelCount(joined)

	auditRel, err := r.catalog.Table(ctx, TableAudit)
	if err != nil {
		return domain.QcRecord{}, err
	}
	newChannels, err := NewChannelsIngestedCount(auditRel, st.dateToken)
	if err != nil {
		return domain.QcRecord{}, err
	}

	values := map[int]scalarPair{
		1: countPair(rawCnt, successCnt+errorCnt-multiple),
		2: countPair(0, multiple),
		3: countPair(successCnt, correct),
	}
	metrics, err := runStepMetrics(ctx, logger, r.archiver, channelIngestMetrics, values, joined, r.now())
	if err != nil {
		return domain.QcRecord{}, err
	}

	successLoc, err := r.catalog.Location(TableChannelIngestSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	refLoc, err := r.catalog.Location(TableChannelMapReference)
	if err != nil {
		return domain.QcRecord{}, err
	}
	reference := map[string]string{
		"ami_summary":            r.cfg.Paths.SaveAmiSummary,
		"channel_ingest_error":   r.cfg.Paths.ChannelIngestError,
		"channel_ingest_success": successLoc,
		"channel_map_reference":  refLoc,
	}
	misc := map[int]miscEntry{
		1: {Name: "Raw Channel Count", Value: rawCnt},
		2: {Name: "Channel Ingest Success Count", Value: successCnt},
		3: {Name: "Channel Ingest Error Count", Value: errorCnt},
		4: {Name: "Newly Ingested Channels", Value: newChannels},
	}
	return buildRecord(StepChannelIngest, r.cfg.ExecutionDateYMD(), metrics, reference, misc)
}

// extractStep reconciles raw read counts against the extract task's success
// and error outputs.
func (r *Runner) extractStep(ctx context.Context, logger *slog.Logger, st *runState) (domain.QcRecord, error) {
	reads := ChannelReadCounts(st.summary)
	extractRel, err := r.catalog.Table(ctx, TableExtractSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	success, err := ExtractSuccessByChannel(extractRel, st.channels)
	if err != nil {
		return domain.QcRecord{}, err
	}
	errRel, err := r.catalog.Table(ctx, TableExtractError)
	if err != nil {
		return domain.QcRecord{}, err
	}
	errored, err := ExtractErrorByChannel(errRel)
	if err != nil {
		return domain.QcRecord{}, err
	}

	joined := JoinExtractCommonAmi(reads, success, errored)

	var rawReads, successReads, errorReads int64
	for _, d := range reads {
		rawReads += d.RawReadCnt
	}
	for _, s := range success {
		successReads += s.SuccessCnt
	}
	for _, e := range errored {
		errorReads += e.ErrorCnt
	}

	values := map[int]scalarPair{1: countPair(rawReads, successReads+errorReads)}
	metrics, err := runStepMetrics(ctx, logger, r.archiver, extractMetrics, values, joined, r.now())
	if err != nil {
		return domain.QcRecord{}, err
	}

	successLoc, err := r.catalog.Location(TableChannelIngestSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	extractLoc, err := r.catalog.Location(TableExtractSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	reference := map[string]string{
		"ami_summary":                r.cfg.Paths.SaveAmiSummary,
		"channel_ingest_success":     successLoc,
		"extract_common_ami_error":   r.cfg.Paths.ExtractCommonAmiError,
		"extract_common_ami_success": extractLoc,
	}
	misc := map[int]miscEntry{
		1: {Name: "Extract Common AMI Success Count", Value: successReads},
		2: {Name: "Extract Common AMI Error Count", Value: errorReads},
	}
	return buildRecord(StepExtractCommonAmi, r.cfg.ExecutionDateYMD(), metrics, reference, misc)
}

// loadStep reconciles extract success counts against loaded row counts per
// tenant and UTC date.
func (r *Runner) loadStep(ctx context.Context, logger *slog.Logger, _ *runState) (domain.QcRecord, error) {
	extractRel, err := r.catalog.Table(ctx, TableExtractSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	extract, err := ExtractSuccessByUTCDate(extractRel)
	if err != nil {
		return domain.QcRecord{}, err
	}
	loadRel, err := r.catalog.Table(ctx, TableLoadSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	loaded, err := ExtractLoadSuccess(loadRel)
	if err != nil {
		return domain.QcRecord{}, err
	}

	joined := JoinLoadCommonAmi(extract, loaded)

	values := map[int]scalarPair{1: countPair(sumExtractSuccess(extract), sumLoadSuccess(loaded))}
	metrics, err := runStepMetrics(ctx, logger, r.archiver, loadMetrics, values, joined, r.now())
	if err != nil {
		return domain.QcRecord{}, err
	}

	extractLoc, err := r.catalog.Location(TableExtractSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	loadLoc, err := r.catalog.Location(TableLoadSuccess)
	if err != nil {
		return domain.QcRecord{}, err
	}
	reference := map[string]string{
		"common":                     r.cfg.Paths.Common,
		"extract_common_ami_success": extractLoc,
		"load_common_ami_success":    loadLoc,
	}
	return buildRecord(StepLoadCommonAmi, r.cfg.ExecutionDateYMD(), metrics, reference, map[int]miscEntry{})
}
