package entity

import "time"

type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusSkipped   ScanStatus = "skipped"
	ScanStatusFailed    ScanStatus = "failed"
	ScanStatusCanceled  ScanStatus = "canceled"
)

type ScanLog struct {
	ID             string
	Origins        []string
	StartedAt      time.Time
	CompletedAt    *time.Time
	RoutesChecked  int
	AnomaliesFound int
	DealsValidated int
	DealsPublished int
	Errors         int
	APICalls       int
	Status         ScanStatus
}
