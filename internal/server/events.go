package server

import (
	"fmt"
	"log/slog"

	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/push"
	"github.com/mkendall/tandem/internal/store"
	ws "github.com/mkendall/tandem/internal/websocket"
)

// events fans quest and ledger changes out to the couple's live websocket
// clients and, where it concerns the partner, to web push. Devices treat
// these as wake-up calls and re-fetch through the API.
type events struct {
	hub      *ws.Hub
	couples  *store.CoupleStore
	notifier *push.Notifier
	logger   *slog.Logger
}

func (e *events) QuestsGenerated(coupleID int64, dateKey string, quests []model.Quest) {
	e.hub.Broadcast(coupleID, ws.NewMessage("quest", "generated", map[string]any{
		"date":  dateKey,
		"count": len(quests),
	}))
	e.notifyCouple(coupleID, push.Payload{
		Title: "Today's quests are ready",
		Body:  fmt.Sprintf("%d new quests for %s", len(quests), dateKey),
		Tag:   "quests-" + dateKey,
	})
}

func (e *events) QuestsRefreshed(coupleID int64, dateKey string, quests []model.Quest) {
	// Refresh means the other device already acted; a websocket nudge is
	// enough, no push notification.
	e.hub.Broadcast(coupleID, ws.NewMessage("quest", "refreshed", map[string]any{
		"date":  dateKey,
		"count": len(quests),
	}))
}

func (e *events) QuestCompleted(quest model.Quest, completedBy int64) {
	e.hub.Broadcast(quest.CoupleID, ws.NewMessage("quest", "completed", map[string]any{
		"quest_id":     quest.ID,
		"date":         quest.DateKey,
		"completed_by": completedBy,
	}))
	e.notifyPartner(quest.CoupleID, completedBy, push.Payload{
		Title: "Quest completed",
		Body:  quest.Title,
		Tag:   "quest-" + quest.ID,
	})
}

func (e *events) PointsAwarded(entry model.LedgerEntry, total int) {
	e.hub.Broadcast(entry.CoupleID, ws.NewMessage("points", "awarded", map[string]any{
		"amount": entry.Amount,
		"source": string(entry.Source),
		"total":  total,
	}))
	e.notifyPartner(entry.CoupleID, entry.UserID, push.Payload{
		Title: "Love points earned",
		Body:  pointsBody(entry.Amount, total),
		Tag:   "points",
	})
}

// pointsBody keeps the sign readable for corrections: "+10" and "-5", never
// "+-5".
func pointsBody(amount, total int) string {
	return fmt.Sprintf("%+d points, total is now %d", amount, total)
}

// notifyPartner pushes to the devices of actorID's partner.
func (e *events) notifyPartner(coupleID, actorID int64, payload push.Payload) {
	if e.notifier == nil {
		return
	}
	couple, err := e.couples.GetByID(coupleID)
	if err != nil || couple == nil {
		e.logger.Warn("partner lookup failed", "couple_id", coupleID, "error", err)
		return
	}
	partnerID, ok := couple.PartnerOf(actorID)
	if !ok {
		return
	}
	go e.notifier.NotifyUser(partnerID, payload)
}

// notifyCouple pushes to both partners' devices.
func (e *events) notifyCouple(coupleID int64, payload push.Payload) {
	if e.notifier == nil {
		return
	}
	couple, err := e.couples.GetByID(coupleID)
	if err != nil || couple == nil {
		e.logger.Warn("couple lookup failed", "couple_id", coupleID, "error", err)
		return
	}
	go e.notifier.NotifyUser(couple.UserAID, payload)
	go e.notifier.NotifyUser(couple.UserBID, payload)
}
