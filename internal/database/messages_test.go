// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/models"
)

const testMessageText = "Halo penyiar, tolong putarkan lagu keroncong untuk warga Bandung tercinta"

func TestInsertChatMessageDefaultsPending(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)

	msg, err := db.InsertChatMessage(context.Background(), session.ID, testMessageText, models.SenderUser)
	if err != nil {
		t.Fatalf("InsertChatMessage() failed: %v", err)
	}
	if msg.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", msg.Status)
	}

	got, err := db.GetChatMessageByID(context.Background(), msg.ID.String())
	if err != nil {
		t.Fatalf("GetChatMessageByID() failed: %v", err)
	}
	if got.Text != testMessageText {
		t.Errorf("text = %q, want %q", got.Text, testMessageText)
	}
	if got.Sender != models.SenderUser {
		t.Errorf("sender = %s, want user", got.Sender)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.ModeratedAt != nil {
		t.Error("new message should have no moderation timestamp")
	}
}

func TestGetChatMessageByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetChatMessageByID(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
}

func TestModerateChatMessage(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)

	msg, err := db.InsertChatMessage(context.Background(), session.ID, testMessageText, models.SenderUser)
	if err != nil {
		t.Fatalf("InsertChatMessage() failed: %v", err)
	}

	moderatorID := uuid.NewString()
	now := time.Now().UTC()
	if err := db.ModerateChatMessage(context.Background(), msg.ID.String(), models.StatusApproved, moderatorID, now); err != nil {
		t.Fatalf("ModerateChatMessage() failed: %v", err)
	}

	got, err := db.GetModeratedMessage(context.Background(), msg.ID.String())
	if err != nil {
		t.Fatalf("GetModeratedMessage() failed: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if got.ModeratorID != moderatorID {
		t.Errorf("moderator ID = %q, want %q", got.ModeratorID, moderatorID)
	}
	if got.ModeratedAt == nil {
		t.Error("moderated message should carry a moderation timestamp")
	}
	if got.GuestName != "Rudi" {
		t.Errorf("guest name = %q, want %q", got.GuestName, "Rudi")
	}
}

func TestModerateChatMessageSingleShot(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)

	msg, err := db.InsertChatMessage(context.Background(), session.ID, testMessageText, models.SenderUser)
	if err != nil {
		t.Fatalf("InsertChatMessage() failed: %v", err)
	}

	now := time.Now().UTC()
	if err := db.ModerateChatMessage(context.Background(), msg.ID.String(), models.StatusRejected, "mod-1", now); err != nil {
		t.Fatalf("first decision failed: %v", err)
	}

	// A second decision must fail and leave the first intact.
	err = db.ModerateChatMessage(context.Background(), msg.ID.String(), models.StatusApproved, "mod-2", now)
	if !errors.Is(err, ErrAlreadyModerated) {
		t.Fatalf("err = %v, want ErrAlreadyModerated", err)
	}

	got, err := db.GetChatMessageByID(context.Background(), msg.ID.String())
	if err != nil {
		t.Fatalf("GetChatMessageByID() failed: %v", err)
	}
	if got.Status != models.StatusRejected {
		t.Errorf("status = %s, want rejected (first decision preserved)", got.Status)
	}
	if got.ModeratorID != "mod-1" {
		t.Errorf("moderator ID = %q, want mod-1", got.ModeratorID)
	}
}

func TestModerateChatMessageNotFound(t *testing.T) {
	db := setupTestDB(t)

	err := db.ModerateChatMessage(context.Background(), uuid.NewString(), models.StatusApproved, "mod-1", time.Now())
	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
}

func TestGetPendingMessagesOrderAndFilter(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		msg, err := db.InsertChatMessage(ctx, session.ID, fmt.Sprintf("%s nomor %d", testMessageText, i), models.SenderUser)
		if err != nil {
			t.Fatalf("InsertChatMessage() failed: %v", err)
		}
		ids = append(ids, msg.ID)
		time.Sleep(2 * time.Millisecond)
	}

	// Admin messages and moderated messages never appear in the queue.
	if _, err := db.InsertChatMessage(ctx, session.ID, testMessageText, models.SenderAdmin); err != nil {
		t.Fatalf("InsertChatMessage() failed: %v", err)
	}
	if err := db.ModerateChatMessage(ctx, ids[1].String(), models.StatusApproved, "mod-1", time.Now().UTC()); err != nil {
		t.Fatalf("ModerateChatMessage() failed: %v", err)
	}

	pending, err := db.GetPendingMessages(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetPendingMessages() failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending count = %d, want 2", len(pending))
	}
	if pending[0].ID != ids[0] || pending[1].ID != ids[2] {
		t.Errorf("pending order = [%s %s], want oldest first [%s %s]",
			pending[0].ID, pending[1].ID, ids[0], ids[2])
	}
	for _, m := range pending {
		if m.GuestName != "Rudi" {
			t.Errorf("guest name = %q, want %q", m.GuestName, "Rudi")
		}
	}
}

func TestGetApprovedMessagesPagination(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)
	ctx := context.Background()

	base := time.Now().UTC()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		msg, err := db.InsertChatMessage(ctx, session.ID, fmt.Sprintf("%s nomor %d", testMessageText, i), models.SenderUser)
		if err != nil {
			t.Fatalf("InsertChatMessage() failed: %v", err)
		}
		// Spread moderation timestamps so ordering is deterministic.
		if err := db.ModerateChatMessage(ctx, msg.ID.String(), models.StatusApproved, "mod-1", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("ModerateChatMessage() failed: %v", err)
		}
		ids = append(ids, msg.ID)
	}

	messages, total, err := db.GetApprovedMessages(ctx, 2, 0)
	if err != nil {
		t.Fatalf("GetApprovedMessages() failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(messages) != 2 {
		t.Fatalf("page size = %d, want 2", len(messages))
	}
	// Newest decision first.
	if messages[0].ID != ids[4] || messages[1].ID != ids[3] {
		t.Errorf("page order = [%s %s], want [%s %s]",
			messages[0].ID, messages[1].ID, ids[4], ids[3])
	}
	if messages[0].GuestName != "Rudi" {
		t.Errorf("guest name = %q, want %q", messages[0].GuestName, "Rudi")
	}

	messages, total, err = db.GetApprovedMessages(ctx, 2, 4)
	if err != nil {
		t.Fatalf("GetApprovedMessages() offset failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(messages) != 1 {
		t.Errorf("last page size = %d, want 1", len(messages))
	}

	messages, total, err = db.GetApprovedMessages(ctx, 2, 10)
	if err != nil {
		t.Fatalf("GetApprovedMessages() past end failed: %v", err)
	}
	if total != 5 || len(messages) != 0 {
		t.Errorf("past end: total = %d len = %d, want 5 and 0", total, len(messages))
	}
}

func TestConcurrentModerationOneWinner(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)
	ctx := context.Background()

	msg, err := db.InsertChatMessage(ctx, session.ID, testMessageText, models.SenderUser)
	if err != nil {
		t.Fatalf("InsertChatMessage() failed: %v", err)
	}

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			errs <- db.ModerateChatMessage(ctx, msg.ID.String(), models.StatusApproved,
				fmt.Sprintf("mod-%d", n), time.Now().UTC())
		}(i)
	}

	var wins, conflicts int
	for i := 0; i < workers; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyModerated):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}
}
