package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
)

const exportHeader = "ID,Slug,Name,Category,Price,Stock,Status,Created At"

// Export renders the first export-limit rows of the listing as CSV. Only the
// name column is quoted; an empty result is the empty string.
func (s *Service) Export(ctx context.Context, locale string, req domain.ListRequest) (string, error) {
	req.Page = 1
	req.Limit = s.catalog.Get().ExportLimit

	resp, err := s.List(ctx, locale, req)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(resp.Data)+1)
	lines = append(lines, exportHeader)
	for _, item := range resp.Data {
		lines = append(lines, exportRow(item))
	}

	s.metrics.RecordExport(ctx, len(resp.Data))
	return strings.Join(lines, "\n"), nil
}

func exportRow(item domain.Item) string {
	title := ""
	if item.Translation != nil {
		title = item.Translation.Title
	}
	status := "Archived"
	if item.IsActive {
		status = "Active"
	}

	return strings.Join([]string{
		item.ID,
		item.Slug,
		`"` + strings.ReplaceAll(title, `"`, `""`) + `"`,
		item.Category,
		item.Price.String(),
		strconv.Itoa(item.Quantity),
		status,
		item.CreatedAt.UTC().Format(time.RFC3339),
	}, ",")
}
