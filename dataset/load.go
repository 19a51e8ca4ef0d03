// Package dataset 负责批处理的输入输出：按城市命名约定读取门店/评论/行为 CSV，
// 并把一次运行的产物（六张表 + 运行摘要）落盘。
//
// 解析策略与上游数据的脏度匹配：数值字段解析失败视为缺失（nil），
// 可选输入文件不存在时返回空表，必选输入缺失才报错。
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/venuekit/core"
	"github.com/rushteam/venuekit/tagging"
)

// Paths 描述一次运行的输入布局。
// 门店明细/基表/评论按 "{city}_restaurant_*.csv" 约定在 DataDir 下解析；
// 行为日志优先用 ActionsCSV 显式路径，否则回落到 DataDir/user_location_actions.csv。
type Paths struct {
	DataDir    string
	City       string
	ActionsCSV string
}

func (p Paths) DetailsCSV() string {
	return filepath.Join(p.DataDir, p.City+"_restaurant_details.csv")
}

func (p Paths) BaseCSV() string {
	return filepath.Join(p.DataDir, p.City+"_restaurants.csv")
}

func (p Paths) ReviewsCSV() string {
	return filepath.Join(p.DataDir, p.City+"_restaurant_reviews.csv")
}

// table 是一张带表头索引的 CSV 表。
type table struct {
	cols map[string]int
	rows [][]string
}

// get 按列名取值，列不存在或该行太短时返回空串。
func (t *table) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &table{cols: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return &table{cols: cols, rows: rows}, nil
}

// parseFloat 宽松解析数值，空串或坏值返回 nil。
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntLoose(s string) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// LoadVenues 读取门店明细表并做行级归一化：
// ID 按行序从 1 分配；cuisine 先取 cuisine_detected_ext、再回落 cuisine_detected、
// 最后 "unknown"；types 按逗号拆分；营业时间与价格档位走 tagging 的归一化规则；
// 基表存在时按 place_id 合入 grid_id。
// 明细表是必选输入，缺失即错误。表级派生分由 tagging.DeriveStats 负责。
func LoadVenues(paths Paths) ([]*core.Venue, error) {
	tbl, err := readTable(paths.DetailsCSV())
	if err != nil {
		return nil, fmt.Errorf("dataset: venue details: %w", err)
	}

	gridByPlace := map[string]string{}
	if base, err := readTable(paths.BaseCSV()); err == nil {
		if _, ok := base.cols["grid_id"]; ok {
			for _, row := range base.rows {
				if pid := base.get(row, "place_id"); pid != "" {
					gridByPlace[pid] = base.get(row, "grid_id")
				}
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("dataset: venue base grid: %w", err)
	}

	venues := make([]*core.Venue, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		v := &core.Venue{
			ID:         int64(i + 1),
			ExternalID: tbl.get(row, "place_id"),
			Name:       tbl.get(row, "name"),
			Address:    tbl.get(row, "vicinity"),
			Rating:     parseFloat(tbl.get(row, "rating")),
			PriceLevel: parseIntLoose(tbl.get(row, "price_level")),
			Lat:        parseFloat(tbl.get(row, "lat")),
			Lon:        parseFloat(tbl.get(row, "lon")),
		}

		if n := parseFloat(tbl.get(row, "user_ratings_total")); n != nil && *n > 0 {
			v.ReviewCount = int(*n)
		}

		cuisine := strings.TrimSpace(tbl.get(row, "cuisine_detected_ext"))
		if cuisine == "" {
			cuisine = strings.TrimSpace(tbl.get(row, "cuisine_detected"))
		}
		if cuisine == "" {
			cuisine = "unknown"
		}
		v.CuisinePrimary = strings.ToLower(cuisine)

		for _, t := range strings.Split(tbl.get(row, "types"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				v.TypeCodes = append(v.TypeCodes, t)
			}
		}

		status := strings.TrimSpace(tbl.get(row, "business_status"))
		if status == "" {
			status = "unknown"
		}
		v.BusinessStatus = strings.ToLower(status)

		v.GridCell = gridByPlace[v.ExternalID]
		v.PriceBucket = tagging.PriceBucketFor(v.PriceLevel)
		v.OpenLate, v.OpenEarly, v.SundayOpen = tagging.ScheduleFlags(tbl.get(row, "opening_hours_periods"))

		venues = append(venues, v)
	}
	return venues, nil
}

// LoadReviews 读取评论表并通过 place_id 解析到门店。
// 评论是可选输入：文件不存在返回空表；解析不到门店的行丢弃；
// 作者名缺失统一折叠为 "anon"，保证去重作者数的口径一致。
func LoadReviews(paths Paths, venueByExternal map[string]int64) ([]core.Review, error) {
	tbl, err := readTable(paths.ReviewsCSV())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: reviews: %w", err)
	}

	reviews := make([]core.Review, 0, len(tbl.rows))
	for _, row := range tbl.rows {
		venueID, ok := venueByExternal[tbl.get(row, "place_id")]
		if !ok {
			continue
		}
		author := strings.TrimSpace(tbl.get(row, "author_name"))
		if author == "" {
			author = "anon"
		}
		reviews = append(reviews, core.Review{
			VenueID:    venueID,
			Language:   strings.TrimSpace(tbl.get(row, "language")),
			AuthorName: author,
			Text:       tbl.get(row, "text"),
		})
	}
	return reviews, nil
}

// actionTimeLayouts 是行为日志时间戳的候选格式，按常见程度排列。
var actionTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseActionTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range actionTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	// 解析失败留零值，画像层对零值不做衰减
	return time.Time{}
}

// LoadActions 读取行为日志。优先显式路径，其次 DataDir 下的约定文件名；
// 都不存在返回空表（调用方据此决定是否合成示例用户）。
func LoadActions(paths Paths) ([]core.UserAction, error) {
	candidates := []string{}
	if paths.ActionsCSV != "" {
		candidates = append(candidates, paths.ActionsCSV)
	}
	candidates = append(candidates, filepath.Join(paths.DataDir, "user_location_actions.csv"))

	for _, path := range candidates {
		tbl, err := readTable(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: user actions: %w", err)
		}

		actions := make([]core.UserAction, 0, len(tbl.rows))
		for _, row := range tbl.rows {
			actions = append(actions, core.UserAction{
				UserID:     tbl.get(row, "user_id"),
				ExternalID: tbl.get(row, "place_id"),
				Action:     core.ActionType(tbl.get(row, "action")),
				CreatedAt:  parseActionTime(tbl.get(row, "created_at")),
			})
		}
		return actions, nil
	}
	return nil, nil
}
