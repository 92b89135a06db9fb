// Package export renders admin tables as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/hongminglow/foodie-be/internal/models"
)

// ContentType is the media type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var (
	menuHeaders  = []string{"ID", "Name", "Category", "Price", "Recipe", "Image", "CreatedAt"}
	orderHeaders = []string{"ID", "UserID", "UserName", "UserEmail", "Items", "TotalAmount", "Status", "CreatedAt"}
)

// Menu writes one row per menu item to w.
func Menu(w io.Writer, items []models.MenuItem) error {
	file, sheet, err := newSheet("Menu", menuHeaders)
	if err != nil {
		return err
	}
	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.ID)
		row.AddCell().SetString(item.Name)
		row.AddCell().SetString(string(item.Category))
		row.AddCell().SetFloat(item.Price)
		row.AddCell().SetString(item.Recipe)
		row.AddCell().SetString(item.Image)
		row.AddCell().SetString(item.CreatedAt.Format(timeLayout))
	}
	return write(file, w)
}

// Orders writes one row per order to w; items are joined into one cell.
func Orders(w io.Writer, orders []models.Order) error {
	file, sheet, err := newSheet("Orders", orderHeaders)
	if err != nil {
		return err
	}
	for _, order := range orders {
		names := make([]string, 0, len(order.Items))
		for _, line := range order.Items {
			names = append(names, line.Name)
		}
		row := sheet.AddRow()
		row.AddCell().SetString(order.ID)
		row.AddCell().SetString(order.UserID)
		row.AddCell().SetString(order.UserName)
		row.AddCell().SetString(order.UserEmail)
		row.AddCell().SetString(strings.Join(names, ", "))
		row.AddCell().SetFloat(order.TotalAmount)
		row.AddCell().SetString(string(order.Status))
		row.AddCell().SetString(order.CreatedAt.Format(timeLayout))
	}
	return write(file, w)
}

func newSheet(name string, headers []string) (*xlsx.File, *xlsx.Sheet, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(name)
	if err != nil {
		return nil, nil, fmt.Errorf("add %s sheet: %w", name, err)
	}
	header := sheet.AddRow()
	for _, h := range headers {
		header.AddCell().SetString(h)
	}
	return file, sheet, nil
}

func write(file *xlsx.File, w io.Writer) error {
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
