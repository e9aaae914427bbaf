package app

import (
	"context"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
)

// RoomUseCase room membership checks
type RoomUseCase struct {
	roomRepo repository.RoomRepository
}

// NewRoomUseCase init room ues case
func NewRoomUseCase(r repository.RoomRepository) *RoomUseCase {
	return &RoomUseCase{roomRepo: r}
}

// CheckAccess domain.ErrRoomNotFound / domain.ErrRoomAccessDenied
func (uc *RoomUseCase) CheckAccess(ctx context.Context, roomID, userID string) error {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(userID) {
		return domain.ErrRoomAccessDenied
	}
	return nil
}
