package search

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid search argument")
	ErrLocationNotFound = errors.New("location not found")
	ErrRouteNotFound    = errors.New("route not found")
)

// Message returns the user-facing text for a failed search.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "入力内容を確認してください。"
	case errors.Is(err, ErrLocationNotFound):
		return "場所が見つかりませんでした。"
	case errors.Is(err, ErrRouteNotFound):
		return "ルートが見つかりませんでした。"
	default:
		return "検索に失敗しました。"
	}
}

// Outcome returns the metrics label for a search error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrLocationNotFound):
		return "location_not_found"
	case errors.Is(err, ErrRouteNotFound):
		return "route_not_found"
	default:
		return "error"
	}
}
