package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const importSheet = "Parts"

var importHeaders = []string{"Category", "Model", "Name", "Type", "Price", "Quantity", "Threshold"}

// ImportService 配件批量导入（xlsx）
type ImportService struct {
	*deps
	parts       *PartService
	minioClient *minio.Client
	bucketName  string
}

func NewImportService(d *deps, parts *PartService, minioClient *minio.Client, bucketName string) *ImportService {
	return &ImportService{deps: d, parts: parts, minioClient: minioClient, bucketName: bucketName}
}

// ImportRowError 单行失败原因，Row 为 Excel 行号
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult 导入结果
type ImportResult struct {
	Created    int              `json:"created"`
	Restocked  int              `json:"restocked"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors"`
	ArchiveKey string           `json:"archive_key,omitempty"`
}

// Template 生成导入模板
func (s *ImportService) Template() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", importSheet); err != nil {
		return nil, err
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range importHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(importSheet, cell, h)
		f.SetCellStyle(importSheet, cell, cell, boldStyle)
		f.SetColWidth(importSheet, col, col, 16)
	}

	sample := []interface{}{"SAMSUNG", "GALAXY S21", "Display Assembly", "OLED", 89.5, 10, 3}
	for j, val := range sample {
		col, _ := excelize.ColumnNumberToName(j + 1)
		f.SetCellValue(importSheet, fmt.Sprintf("%s2", col), val)
	}
	return f, nil
}

// Import 读取工作簿第一个 sheet（或 .csv 文件），逐行创建或入库配件。
// 分类和机型必须已存在；同一机型下已有的 (name, type) 视为入库。
// 配置了 MinIO 时先归档上传的原始文件。
func (s *ImportService) Import(ctx context.Context, userID, fileName string, data []byte) (*ImportResult, error) {
	var rows [][]string
	var err error
	if isCSV(fileName) {
		rows, err = readCSVRows(data)
	} else {
		rows, err = readXLSXRows(data)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []ImportRowError{}}
	if key, err := s.archive(ctx, fileName, data); err != nil {
		s.logger.Warn("archive import file failed", zap.String("file", fileName), zap.Error(err))
	} else {
		result.ArchiveKey = key
	}

	if len(rows) < 2 {
		return result, nil
	}

	for i, row := range rows[1:] { // 跳过表头
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		restocked, err := s.importRow(ctx, userID, row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if restocked {
			result.Restocked++
		} else {
			result.Created++
		}
	}

	s.logger.Info("Parts imported",
		zap.String("file", fileName),
		zap.Int("created", result.Created),
		zap.Int("restocked", result.Restocked),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, userID string, row []string) (bool, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	categoryName, modelName, name, partType := entity.NormalizeName(cell(0)), entity.NormalizeName(cell(1)), cell(2), cell(3)
	if categoryName == "" || modelName == "" || name == "" || partType == "" {
		return false, errors.New("category, model, name and type are required")
	}
	price, err := strconv.ParseFloat(cell(4), 64)
	if err != nil || price < 0 {
		return false, fmt.Errorf("invalid price %q", cell(4))
	}
	quantity, err := parseOptionalInt(cell(5))
	if err != nil {
		return false, fmt.Errorf("invalid quantity %q", cell(5))
	}
	var threshold *int
	if cell(6) != "" {
		v, err := parseOptionalInt(cell(6))
		if err != nil {
			return false, fmt.Errorf("invalid threshold %q", cell(6))
		}
		threshold = &v
	}

	category, err := s.repos.Category.FindByName(ctx, categoryName)
	if err != nil || !category.State.IsActive() {
		return false, fmt.Errorf("category %s not found", categoryName)
	}
	model, err := s.repos.Model.FindByNameInCategory(ctx, modelName, category.ID)
	if err != nil || !model.State.IsActive() {
		return false, fmt.Errorf("model %s not found in %s", modelName, categoryName)
	}

	existing, err := s.repos.Part.FindDuplicate(ctx, name, partType, model.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if existing != nil && existing.State.IsActive() {
		if quantity == 0 {
			return true, nil
		}
		_, err := s.parts.restock(ctx, userID, existing.ID, &RestockRequest{Quantity: quantity, Price: &price, Reason: "file import"}, entity.MovementImport)
		return true, err
	}

	_, err = s.parts.Create(ctx, userID, &CreatePartRequest{
		Name:      name,
		Type:      partType,
		ModelID:   model.ID,
		Price:     &price,
		Quantity:  &quantity,
		Threshold: threshold,
	})
	return false, err
}

func (s *ImportService) archive(ctx context.Context, fileName string, data []byte) (string, error) {
	if s.minioClient == nil {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".xlsx"
	}
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if ext == ".csv" {
		contentType = "text/csv"
	}
	objectName := fmt.Sprintf("imports/%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String()[:8], ext)
	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	return objectName, nil
}

func isCSV(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".csv")
}

func readXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ValidationError{Message: "invalid xlsx file: " + err.Error()}
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}
	return rows, nil
}

// readCSVRows 非 UTF-8 内容按 GBK 解码（旧版 Excel 导出的 csv）
func readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var reader io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		reader = transform.NewReader(reader, simplifiedchinese.GBK.NewDecoder())
	}

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ValidationError{Message: "invalid csv file: " + err.Error()}
	}
	return rows, nil
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Excel 数字单元格可能读成 "10.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, err
		}
		v = int(f)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
