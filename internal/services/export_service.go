package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/forgedao/forgeboard/internal/models"
)

// ExportService renders event leaderboards as Excel workbooks.
type ExportService struct {
	participations *ParticipationService
}

func NewExportService(participations *ParticipationService) *ExportService {
	return &ExportService{participations: participations}
}

// ExportLeaderboard builds an xlsx workbook with the ranked standings
// of an event.
func (s *ExportService) ExportLeaderboard(event *models.Event) (*bytes.Buffer, error) {
	entries, err := s.participations.GetLeaderboard(event.ID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Leaderboard"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Position", "Username", "Rank", "Score", "Commits", "Pull Requests", "Lines Added", "Lines Deleted", "Joined", "Last Activity"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	for i, entry := range entries {
		row := i + 2
		lastActivity := ""
		if entry.LastActivity != nil {
			lastActivity = entry.LastActivity.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			entry.Position, entry.Username, entry.UserRank, entry.Score,
			entry.TotalCommits, entry.TotalPRs, entry.LinesAdded, entry.LinesDeleted,
			entry.JoinedAt.Format("2006-01-02 15:04"), lastActivity,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "J", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf, nil
}
