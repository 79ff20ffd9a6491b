package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/webrall/newsletter-backend/internal/model"
)

type ReportRepositoryInterface interface {
	Save(report *model.DeliveryReport) error
	Latest() (*model.DeliveryReport, error)
}

// ReportRepository keeps a single delivery report: every save overwrites
// the previous one, mirroring "last send" semantics rather than a history.
type ReportRepository struct {
	DB *sql.DB
}

func (r *ReportRepository) Save(report *model.DeliveryReport) error {
	failList, err := json.Marshal(report.FailList)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO delivery_report (id, time, post_id, subject, total, ok, fail, fail_list, target)
        VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id)
        DO UPDATE SET time=$1, post_id=$2, subject=$3, total=$4, ok=$5, fail=$6, fail_list=$7, target=$8
    `
	_, err = r.DB.Exec(query,
		report.Time, report.PostID, report.Subject,
		report.Total, report.OK, report.Fail,
		string(failList), report.Target,
	)
	return err
}

func (r *ReportRepository) Latest() (*model.DeliveryReport, error) {
	query := `
        SELECT time, post_id, subject, total, ok, fail, fail_list, target
        FROM delivery_report
        WHERE id=1
    `
	var report model.DeliveryReport
	var failList string
	err := r.DB.QueryRow(query).Scan(
		&report.Time, &report.PostID, &report.Subject,
		&report.Total, &report.OK, &report.Fail,
		&failList, &report.Target,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(failList), &report.FailList); err != nil {
		return nil, err
	}
	return &report, nil
}

var _ ReportRepositoryInterface = (*ReportRepository)(nil)
