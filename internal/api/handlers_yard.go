// handlers_yard.go - Yard session and placement handlers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yard-planner/backend/internal/interaction"
	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/session"
	"github.com/yard-planner/backend/internal/yard"
	"go.uber.org/zap"
)

// YardState is what the dashboard renders for a session.
type YardState struct {
	Snapshot models.YardSnapshot `json:"snapshot"`
	Dragging string              `json:"dragging,omitempty"`
	Toast    *interaction.Toast  `json:"toast,omitempty"`
}

// YardHandlerImpl implements the YardHandler interface
type YardHandlerImpl struct {
	sessions SessionManager
	catalog  *SeedCatalog
	log      *zap.Logger
}

// NewYardHandler creates a new yard handler instance
func NewYardHandler(sessions SessionManager, catalog *SeedCatalog, log *zap.Logger) YardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &YardHandlerImpl{sessions: sessions, catalog: catalog, log: log}
}

// HandleCreateSession seeds a new yard from the active or the requested fixture
func (h *YardHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return NewBadRequestError("invalid JSON body", err)
		}
	}

	seed, _ := h.catalog.Active()
	if req.SeedID != "" {
		var err error
		if seed, _, err = h.catalog.Load(req.SeedID); err != nil {
			return toAPIError(err)
		}
	}

	info, err := h.sessions.Create(seed)
	if err != nil {
		h.log.Error("failed to create yard session", zap.String("seed", seed.Name), zap.Error(err))
		return NewInternalError("failed to create yard session", err)
	}

	state, err := h.state(info.ID)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"session": info,
		"state":   state,
	})
}

// HandleGetSession returns session metadata
func (h *YardHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	info, ok := h.sessions.Get(id)
	if !ok {
		return toAPIError(session.ErrSessionNotFound)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteSession discards a session
func (h *YardHandlerImpl) HandleDeleteSession(c echo.Context) error {
	if !h.sessions.Delete(c.Param("id")) {
		return toAPIError(session.ErrSessionNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSnapshot returns the full yard state as JSON
func (h *YardHandlerImpl) HandleSnapshot(c echo.Context) error {
	state, err := h.state(c.Param("id"))
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleSnapshotMsgpack returns the yard snapshot in MessagePack format
func (h *YardHandlerImpl) HandleSnapshotMsgpack(c echo.Context) error {
	state, err := h.state(c.Param("id"))
	if err != nil {
		return toAPIError(err)
	}

	data, err := msgpack.Marshal(state.Snapshot)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleSlotOccupancy returns the count view of one slot
func (h *YardHandlerImpl) HandleSlotOccupancy(c echo.Context) error {
	location := c.Param("location")

	var occ models.SlotOccupancy
	var found bool
	err := h.sessions.With(c.Param("id"), func(s *session.YardSession) error {
		occ, found = s.Engine().Occupancy(location)
		return nil
	})
	if err != nil {
		return toAPIError(err)
	}
	if !found {
		return NewNotFoundError("slot", location)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"location":  occ.Location,
		"count":     occ.Count,
		"remaining": occ.Remaining,
		"display":   occ.Display(),
	})
}

// HandlePreview returns hover feedback for dropping a unit on a target
func (h *YardHandlerImpl) HandlePreview(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	var hover interaction.Hover
	err := h.sessions.With(c.Param("id"), func(s *session.YardSession) error {
		var err error
		hover, err = s.Surface().Preview(req.UnitID, req.Target)
		return err
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(http.StatusOK, hover)
}

// HandleMove applies a move intent. Rule violations answer 422 with the
// operator message; the yard is left unchanged.
func (h *YardHandlerImpl) HandleMove(c echo.Context) error {
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	var result interaction.DropResult
	err := h.sessions.With(c.Param("id"), func(s *session.YardSession) error {
		var err error
		result, err = s.Surface().Move(req.UnitID, req.Target)
		return err
	})
	if err != nil {
		return toAPIError(err)
	}
	if !result.Accepted {
		return NewRejectedError(result.Rejection)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleMoveJournal returns every move attempted in the session
func (h *YardHandlerImpl) HandleMoveJournal(c echo.Context) error {
	journal, err := h.sessions.Journal(c.Param("id"))
	if err != nil {
		return toAPIError(err)
	}
	if journal == nil {
		journal = []models.MoveRecord{}
	}
	return c.JSON(http.StatusOK, journal)
}

// HandleSearch finds containers by number
func (h *YardHandlerImpl) HandleSearch(c echo.Context) error {
	query := c.QueryParam("q")

	var hits []yard.SearchHit
	err := h.sessions.With(c.Param("id"), func(s *session.YardSession) error {
		var err error
		hits, err = s.Engine().Search(query)
		return err
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"hits":      hits,
		"highlight": yard.HighlightedSlots(hits),
	})
}

// HandleSetTruck records the truck waiting at the bay
func (h *YardHandlerImpl) HandleSetTruck(c echo.Context) error {
	var req models.TruckDetails
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	var truck models.TruckView
	err := h.sessions.With(c.Param("id"), func(s *session.YardSession) error {
		if err := s.Engine().SetTruckDetails(req); err != nil {
			return err
		}
		truck = s.Engine().Truck()
		return nil
	})
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(http.StatusOK, truck)
}

func (h *YardHandlerImpl) state(id string) (YardState, error) {
	var state YardState
	err := h.sessions.With(id, func(s *session.YardSession) error {
		state = stateOf(s)
		return nil
	})
	return state, err
}

// stateOf reads the render state of a session. Callers hold the session.
func stateOf(s *session.YardSession) YardState {
	state := YardState{
		Snapshot: s.Engine().Snapshot(),
		Dragging: s.Surface().Dragging(),
	}
	if toast, ok := s.Surface().ActiveToast(); ok {
		state.Toast = &toast
	}
	return state
}

type createSessionRequest struct {
	SeedID string `json:"seedId"`
}

type moveRequest struct {
	UnitID string             `json:"unitId"`
	Target interaction.Target `json:"target"`
}

func (r *moveRequest) validate() error {
	r.UnitID = strings.TrimSpace(r.UnitID)
	if r.UnitID == "" {
		return NewValidationError("unitId")
	}
	switch r.Target.Kind {
	case interaction.TargetSlot:
		if strings.TrimSpace(r.Target.Location) == "" {
			return NewValidationError("target.location")
		}
	case interaction.TargetTruck, interaction.TargetFreeArea:
	default:
		return NewValidationError("target.kind")
	}
	return nil
}
