// Package export fetches the EuroBonus history, classifies it and hands the
// resulting CSV to a Downloader.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/ebcrawler/pkg/csv"
	"github.com/yurifrl/ebcrawler/pkg/models"
	"github.com/yurifrl/ebcrawler/pkg/points"
)

// ErrNoContentRegion is returned by a Downloader that has nowhere to attach
// the download link.
var ErrNoContentRegion = errors.New("eurobonus content region not found")

const noContentRegionAlert = "Could not find the EuroBonus content section"

// Provider loads the profile of the logged in member.
type Provider interface {
	LoadProfileInfo(ctx context.Context) (*models.Profile, error)
}

// Downloader delivers the finished artifact to the user.
type Downloader interface {
	Download(ctx context.Context, filename, mediaType string, data []byte) error
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(ctx context.Context, message string) error
}

// Report is the classified history together with the account balances.
type Report struct {
	Rows              []models.Row
	PointsAvailable   int64
	TotalPointsForUse int64
}

type Exporter struct {
	logger     *log.Logger
	provider   Provider
	downloader Downloader
	alerter    Alerter

	// OnRecord, when set, sees every raw record before it is classified.
	OnRecord func(models.Transaction)
}

func New(logger *log.Logger, provider Provider, downloader Downloader, alerter Alerter) *Exporter {
	return &Exporter{
		logger:     logger,
		provider:   provider,
		downloader: downloader,
		alerter:    alerter,
	}
}

// Collect loads and classifies the history. The first record with an unknown
// points type raises an alert and aborts; no partial report is returned.
func (e *Exporter) Collect(ctx context.Context) (*Report, error) {
	profile, err := e.provider.LoadProfileInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile info: %w", err)
	}

	info := profile.EuroBonus
	txs := info.History.Transactions
	e.logger.Debug("loaded transaction history", "transactions", len(txs))

	rows := make([]models.Row, 0, len(txs))
	for i, t := range txs {
		if e.OnRecord != nil {
			e.OnRecord(t)
		}
		row, err := points.Classify(t)
		if err != nil {
			var unknown *points.UnknownCategoryError
			if errors.As(err, &unknown) {
				e.logger.Debug("unknown points type", "type", unknown.Category, "index", i, "date", t.Date())
				e.alert(ctx, unknown.Error())
			}
			return nil, err
		}
		e.checkActivity(t)
		rows = append(rows, row)
	}

	return &Report{
		Rows:              rows,
		PointsAvailable:   info.PointsAvailable.Int(),
		TotalPointsForUse: info.TotalPointsForUse.Int(),
	}, nil
}

// Export collects the history, renders the CSV and downloads it.
func (e *Exporter) Export(ctx context.Context) ([]byte, error) {
	report, err := e.Collect(ctx)
	if err != nil {
		return nil, err
	}

	data := csv.Create(report.Rows)
	if err := e.downloader.Download(ctx, csv.Filename, csv.MediaType, data); err != nil {
		if errors.Is(err, ErrNoContentRegion) {
			e.alert(ctx, noContentRegionAlert)
		}
		return nil, fmt.Errorf("failed to download %s: %w", csv.Filename, err)
	}

	e.logger.Info("exported transactions", "file", csv.Filename, "rows", len(report.Rows), "bytes", len(data))
	return data, nil
}

// checkActivity warns about base points activities that are neither known to
// earn use points nor a plain correction.
func (e *Exporter) checkActivity(t models.Transaction) {
	c, err := points.ParseCategory(t.PointType)
	if err != nil || (c != points.BasicPoints && c != points.SwedishDomestic) {
		return
	}
	if points.IsEarningActivity(t.Activity) || t.Activity == points.CorrectionActivity {
		return
	}
	e.logger.Warn("unknown type for base points", "type", t.Activity, "date", t.Date())
}

func (e *Exporter) alert(ctx context.Context, message string) {
	if e.alerter == nil {
		return
	}
	if err := e.alerter.Alert(ctx, message); err != nil {
		e.logger.Warn("failed to show alert", "err", err, "msg", message)
	}
}
