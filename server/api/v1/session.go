package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/moneycart"
	"github.com/zintix-labs/moneycart/catalog"
	"github.com/zintix-labs/moneycart/corefmt"
	"github.com/zintix-labs/moneycart/dto"
	"github.com/zintix-labs/moneycart/errs"
	"github.com/zintix-labs/moneycart/server/httperr"
	"github.com/zintix-labs/moneycart/server/svrcfg"
	"github.com/zintix-labs/moneycart/spec"
)

// SessionView session 的對外快照。
type SessionView struct {
	ID        string         `json:"id"`
	GameID    spec.GID       `json:"gid"`
	GameName  string         `json:"game"`
	Seed      int64          `json:"seed"`
	CoinValue string         `json:"coin_value"`
	State     dto.RoundState `json:"state"`
	Board     []dto.Cell     `json:"board"`
}

// AutoplayResult 一次 autoplay 的所有轉。
type AutoplayResult struct {
	Spins []dto.SpinResult `json:"spins"`
}

type SessionHandler struct {
	lab     *moneycart.Lab
	rt      *moneycart.Sessions
	log     *slog.Logger
	timeout time.Duration
}

func NewSessionHandler(sCfg *svrcfg.SvrCfg, rt *moneycart.Sessions) (*SessionHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("session runtime is required")
	}
	return &SessionHandler{lab: sCfg.Lab, rt: rt, log: sCfg.Log, timeout: sCfg.SpinTimeout}, nil
}

func view(s *moneycart.Session) SessionView {
	m := s.Machine
	return SessionView{
		ID:        s.ID,
		GameID:    m.GameID(),
		GameName:  m.GameName(),
		Seed:      m.Seed(),
		CoinValue: m.CoinValue().String(),
		State:     dto.NewRoundState(m.State()),
		Board:     dto.NewBoard(m.Board()),
	}
}

// resolveGID gid 與 game 擇一；兩者都有時必須一致。
func (h *SessionHandler) resolveGID(req *dto.CreateSessionRequest) (spec.GID, error) {
	switch {
	case req.GameName != "":
		ent, ok := h.lab.EntryByName(req.GameName)
		if !ok {
			return 0, errs.Sentinelf(catalog.ErrNotFound, "game=%s", req.GameName)
		}
		if req.GameId != 0 && req.GameId != ent.GID {
			return 0, errs.NewWarn("gid is not matched game name")
		}
		return ent.GID, nil
	case req.GameId != 0:
		return req.GameId, nil
	default:
		return 0, errs.NewWarn("gid or game is required")
	}
}

// Create POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := new(dto.CreateSessionRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	gid, err := h.resolveGID(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	coin, err := dto.ParseCoinValue(req.CoinValue)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	s, err := h.rt.Create(ctx, gid, req.Seed, coin)
	if err != nil {
		httperr.Log(h.log, "session.create", err)
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, view(s))
}

// with 取出 {id} 對應的 session 並執行 fn。
func (h *SessionHandler) with(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, s *moneycart.Session) (any, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	s, err := h.rt.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	out, err := fn(ctx, s)
	if err != nil {
		httperr.Log(h.log.With(slog.String("sid", s.ID)), "session.op", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, func(_ context.Context, s *moneycart.Session) (any, error) {
		return view(s), nil
	})
}

// Start POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	req := new(dto.StartRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	places, err := req.BonusPlacements()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var snap []byte
	if req.StartB64U != "" {
		if snap, err = corefmt.DecodeBase64URL(req.StartB64U); err != nil {
			httperr.Errs(w, err)
			return
		}
	}
	h.with(w, r, func(_ context.Context, s *moneycart.Session) (any, error) {
		if _, err := s.Machine.StartBonusWith(places, snap); err != nil {
			return nil, err
		}
		return view(s), nil
	})
}

// Spin POST /v1/sessions/{id}/spin
func (h *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, func(_ context.Context, s *moneycart.Session) (any, error) {
		return s.Machine.Spin()
	})
}

// Autoplay POST /v1/sessions/{id}/autoplay：連續 Spin 到回合結束或逾時。
func (h *SessionHandler) Autoplay(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, func(ctx context.Context, s *moneycart.Session) (any, error) {
		out := AutoplayResult{Spins: make([]dto.SpinResult, 0, 8)}
		_, err := moneycart.Autoplay(ctx, s.Machine, 0, func(res dto.SpinResult) bool {
			out.Spins = append(out.Spins, res)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Turbo PUT /v1/sessions/{id}/turbo
func (h *SessionHandler) Turbo(w http.ResponseWriter, r *http.Request) {
	req := new(dto.TurboRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	h.with(w, r, func(_ context.Context, s *moneycart.Session) (any, error) {
		s.Machine.SetTurbo(req.On)
		return view(s), nil
	})
}

// Reset POST /v1/sessions/{id}/reset：放棄回合，不計派彩。
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.with(w, r, func(_ context.Context, s *moneycart.Session) (any, error) {
		if err := s.Machine.ResetBoard(); err != nil {
			return nil, err
		}
		return view(s), nil
	})
}

// Delete DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.rt.Delete(chi.URLParam(r, "id")); err != nil {
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
