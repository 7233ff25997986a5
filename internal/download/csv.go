package download

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// Job describes one artwork download: which app, which asset to prefer,
// which asset to fall back to when the preferred one is absent, and where
// to put the file. A zero Fallback means no fallback; an empty OutputPath
// means the manager derives one from the configured filename template.
type Job struct {
	ID         model.AppID
	Base       model.AssetSpec
	Fallback   model.AssetSpec
	OutputPath string
}

// ParseJobs reads batch jobs from CSV.
//
// Each row has the shape:
//
//	id,baseSpec,fallbackSpec,outputPath
//
// where a spec is "type:variant[:language]" (language defaults to english)
// and the fallbackSpec and outputPath fields may be empty. The delimiter is
// configurable for locales where the comma is taken.
func ParseJobs(r io.Reader, delimiter rune) ([]Job, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var jobs []Job
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		job, err := parseJob(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("no jobs in input")
	}
	return jobs, nil
}

func parseJob(record []string) (Job, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(record[0]), 10, 32)
	if err != nil {
		return Job{}, fmt.Errorf("invalid app id %q", record[0])
	}

	base, err := model.ParseAssetSpec(strings.TrimSpace(record[1]))
	if err != nil {
		return Job{}, err
	}

	job := Job{
		ID:         model.AppID(id),
		Base:       base,
		OutputPath: strings.TrimSpace(record[3]),
	}

	if fallback := strings.TrimSpace(record[2]); fallback != "" {
		job.Fallback, err = model.ParseAssetSpec(fallback)
		if err != nil {
			return Job{}, err
		}
	}

	return job, nil
}
