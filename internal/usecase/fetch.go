package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/adapter/nsidc"
	"go.ngs.io/swe-api/internal/domain"
)

// Downloader fetches one described file. nsidc.Downloader implements it.
type Downloader interface {
	Download(ctx context.Context, desc domain.FileDescriptor, overwrite bool) (nsidc.Result, error)
}

// FetchRequest selects the days and grids to download.
type FetchRequest struct {
	Start     time.Time
	End       time.Time // inclusive
	Family    domain.Family
	HighRes   bool
	Overwrite bool
	Base      domain.FileDescriptor
}

// FetchResult lists the local files of each channel in date order.
type FetchResult struct {
	Files   map[string][]string `json:"files"`
	Fetched int                 `json:"fetched"`
	Skipped int                 `json:"skipped"`
}

// FetchUseCase downloads the daily files of both channels.
type FetchUseCase struct {
	downloader Downloader
	logger     *zap.SugaredLogger
}

// NewFetchUseCase creates a new fetch use case
func NewFetchUseCase(downloader Downloader, logger *zap.SugaredLogger) *FetchUseCase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FetchUseCase{downloader: downloader, logger: logger}
}

// Validate checks if the request is valid
func (r *FetchRequest) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("start and end dates must be provided")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("end date must not be before start date")
	}
	if r.End.Sub(r.Start) > 366*24*time.Hour {
		return fmt.Errorf("date range must be at most one year per request")
	}
	return nil
}

// Execute downloads every day from Start to End for both channels. It stops
// at the first failed download.
func (uc *FetchUseCase) Execute(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	res := &FetchResult{Files: make(map[string][]string)}
	for day := req.Start; !day.After(req.End); day = day.AddDate(0, 0, 1) {
		for _, channel := range []string{domain.Channel19H, domain.Channel37H} {
			desc, err := domain.DescriptorFor(req.Base, day, channel, req.Family, req.HighRes)
			if err != nil {
				return nil, err
			}
			r, err := uc.downloader.Download(ctx, desc, req.Overwrite)
			if err != nil {
				return nil, fmt.Errorf("failed to download %s: %w", desc.FileName(), err)
			}
			if r.Skipped {
				res.Skipped++
			} else {
				res.Fetched++
			}
			res.Files[channel] = append(res.Files[channel], r.Path)
		}
	}
	uc.logger.Infof("fetched %d files, %d already present", res.Fetched, res.Skipped)
	return res, nil
}
