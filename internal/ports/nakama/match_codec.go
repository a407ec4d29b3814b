package nakama

import (
	"encoding/json"
	"fmt"
	"strings"

	"cribbage/internal/app"
	"cribbage/internal/snapshot"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const snapshotSignalPrefix = "snapshot:"

// SeatView is one occupied seat in the lobby broadcast.
type SeatView struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	DisplayName string `json:"display_name"`
	IsOwner     bool   `json:"is_owner"`
	IsBot       bool   `json:"is_bot"`
	Score       int    `json:"score"`
}

// MatchStateView is the lobby-level state every presence receives.
type MatchStateView struct {
	Seats     []string   `json:"seats"`
	OwnerSeat int        `json:"owner_seat"`
	Tick      int64      `json:"tick"`
	State     string     `json:"state"`
	Players   []SeatView `json:"players"`
}

// SnapshotEnvelope carries a private snapshot and its optional token.
type SnapshotEnvelope struct {
	Snapshot snapshot.Snapshot `json:"snapshot"`
	Token    string            `json:"token,omitempty"`
}

type eventEnvelope struct {
	Kind    app.EventKind `json:"kind"`
	Payload any           `json:"payload"`
}

type gameError struct {
	Code    app.Status `json:"code"`
	Message string     `json:"message"`
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

func marshalStruct(v any) ([]byte, error) {
	st, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func encodeLabel(state *MatchState) (string, error) {
	label, err := structpb.NewStruct(map[string]any{
		MatchLabelKey_OpenSeats: state.GetOpenSeatsCount(),
		"state":                 state.labelState(),
		"game":                  matchLabelGame,
	})
	if err != nil {
		return "", err
	}
	data, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func matchStateView(state *MatchState) MatchStateView {
	view := MatchStateView{
		Seats:     state.Seats[:],
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		State:     state.labelState(),
	}
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		seat := SeatView{
			UserID:      userID,
			Seat:        i,
			DisplayName: state.displayName(userID),
			IsOwner:     i == state.OwnerSeat,
			IsBot:       !state.isHuman(userID),
		}
		if state.Game != nil {
			if p := state.Game.Player(userID); p != nil {
				seat.Score = p.Score
			}
		}
		view.Players = append(view.Players, seat)
	}
	return view
}

func encodeMatchState(state *MatchState) ([]byte, error) {
	return marshalStruct(matchStateView(state))
}

func encodeEvent(ev app.Event) ([]byte, error) {
	return marshalStruct(eventEnvelope{Kind: ev.Kind, Payload: ev.Payload})
}

func encodeError(cause error) ([]byte, error) {
	return marshalStruct(gameError{Code: app.StatusOf(cause), Message: cause.Error()})
}

func snapshotEnvelope(state *MatchState, userID string) (SnapshotEnvelope, error) {
	snap, err := snapshot.New(state.Game.ViewFor(userID))
	if err != nil {
		return SnapshotEnvelope{}, err
	}
	env := SnapshotEnvelope{Snapshot: snap}
	if state.Signer != nil {
		if env.Token, err = state.Signer.Sign(snap); err != nil {
			return SnapshotEnvelope{}, fmt.Errorf("sign snapshot: %w", err)
		}
	}
	return env, nil
}

// encodeSnapshot builds the protobuf payload for OpSnapshot.
func encodeSnapshot(state *MatchState, userID string) ([]byte, error) {
	env, err := snapshotEnvelope(state, userID)
	if err != nil {
		return nil, err
	}
	st, err := snapshot.ToStruct(env.Snapshot)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"snapshot": structpb.NewStructValue(st),
	}}
	if env.Token != "" {
		msg.Fields["token"] = structpb.NewStringValue(env.Token)
	}
	return proto.Marshal(msg)
}

// encodeSnapshotJSON builds the JSON answer for a snapshot signal.
func encodeSnapshotJSON(state *MatchState, userID string) (string, error) {
	env, err := snapshotEnvelope(state, userID)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func snapshotSignal(userID string) string {
	return snapshotSignalPrefix + userID
}

func parseSnapshotSignal(data string) (string, bool) {
	userID, ok := strings.CutPrefix(data, snapshotSignalPrefix)
	return userID, ok && userID != ""
}
