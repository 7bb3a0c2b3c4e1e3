package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/visit"
)

// VisitServiceInterface は訪問記録ハンドラーが必要とするサービスインターフェース。
type VisitServiceInterface interface {
	Record(ctx context.Context, in visit.RecordInput) (*model.Visit, error)
}

// VisitHandler は訪問記録のHTTPハンドラー。
type VisitHandler struct {
	service VisitServiceInterface
}

// NewVisitHandler はVisitHandlerを生成する。
func NewVisitHandler(service VisitServiceInterface) *VisitHandler {
	return &VisitHandler{service: service}
}

// createVisitRequest はPOST /api/visitsのリクエストボディ。
type createVisitRequest struct {
	Site      string     `json:"site"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

type visitResponse struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Site      string    `json:"site"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type createVisitResponse struct {
	OK    bool          `json:"ok"`
	Visit visitResponse `json:"visit"`
}

// Create は呼び出し元の訪問記録を登録する。時刻を省略した場合は現在時刻となる。
// POST /api/visits
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req createVisitRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleServiceError(w, r, err)
		return
	}

	v, err := h.service.Record(r.Context(), visit.RecordInput{
		AgentID: p.UserID,
		Site:    req.Site,
		StartAt: req.StartTime,
		EndAt:   req.EndTime,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createVisitResponse{
		OK: true,
		Visit: visitResponse{
			ID:        v.ID,
			AgentID:   v.AgentID,
			Site:      v.Site,
			StartTime: v.StartAt,
			EndTime:   v.EndAt,
		},
	})
}
