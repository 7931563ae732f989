package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/readingclub/internal/model"
)

// dateLayout はリクエスト・レスポンスで使う日付形式。
const dateLayout = "2006-01-02"

// parsePage はクエリパラメータからPageRequestを組み立てる。
// 不正な値は補正される（page<0→0、size範囲外→デフォルト/上限）。
func parsePage(r *http.Request) model.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return model.NewPageRequest(page, size)
}

// parseIDParam はURLパラメータをint64のIDとして解析する。
func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("IDの形式が不正です。")
	}
	return id, nil
}

// parseDate は"YYYY-MM-DD"形式の日付を解析する。空文字はゼロ値を返す。
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, model.NewValidationError("日付はYYYY-MM-DD形式で入力してください。")
	}
	return t, nil
}

// parseDateTime はRFC3339形式の日時を解析する。空文字はゼロ値を返す。
func parseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, model.NewValidationError("日時はISO-8601形式で入力してください。")
	}
	return t, nil
}

// formatDate はレスポンス用に日付を整形する。ゼロ値は空文字。
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
