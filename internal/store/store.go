// Package store writes and reads heart-rate snapshots as CSV files named
// patient-<id>-<YYYYMMDD-HHMMSS>.csv with the format:
//
//	time,heart_rate,status
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luki/cardiodash/internal/series"
)

const (
	timeLayout = "2006-01-02T15:04:05"
	fileLayout = "20060102-150405"
)

// FileName returns the snapshot file name for a patient at t.
func FileName(patientID string, t time.Time) string {
	return fmt.Sprintf("patient-%s-%s.csv", patientID, t.Format(fileLayout))
}

// WriteFile writes samples, oldest first, to a new CSV file at path.
func WriteFile(path string, samples []series.Sample) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"time", "heart_rate", "status"})
	for _, s := range samples {
		ts := ""
		if !s.Time.IsZero() {
			ts = s.Time.Local().Format(timeLayout)
		}
		w.Write([]string{ts, strconv.Itoa(s.HeartRate), s.Status().String()})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// LoadFile reads samples back from a snapshot. Rows that cannot be parsed
// are skipped.
func LoadFile(path string) ([]series.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var samples []series.Sample
	for i, row := range records {
		if i == 0 && len(row) > 0 && row[0] == "time" {
			continue
		}
		if len(row) < 2 {
			continue
		}

		rate, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}
		var t time.Time
		if row[0] != "" {
			t, err = time.ParseInLocation(timeLayout, row[0], time.Local)
			if err != nil {
				continue
			}
		}
		samples = append(samples, series.Sample{HeartRate: rate, Time: t})
	}

	return samples, nil
}

// ListSnapshots returns the snapshot files of a patient in dir, newest
// first. An empty patientID lists every snapshot.
func ListSnapshots(dir, patientID string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	prefix := "patient-"
	if patientID != "" {
		prefix += patientID + "-"
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}
