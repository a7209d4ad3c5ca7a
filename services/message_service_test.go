package services

import (
	"io"
	"log/slog"
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/moderation"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageService_SendPersisted(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("should append message to both parties when recipient is online", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDir := mocks.NewMockUserDirectory(ctrl)
		mockConns := mocks.NewMockIConnectionRegistry(ctrl)
		svc := NewMessageService(logger, mockDir, mockConns, nil, nil)

		alice := domain.Identity("1000")
		bob := domain.Identity("2000")

		mockDir.EXPECT().Exists(alice).Return(true, nil)
		mockDir.EXPECT().Exists(bob).Return(true, nil)
		mockConns.EXPECT().Lookup(bob).Return(mocks.NewMockEventSink(ctrl), true)
		mockDir.EXPECT().AppendMessage(alice, gomock.Any()).Return(nil)
		mockDir.EXPECT().AppendMessage(bob, gomock.Any()).Return(nil)

		msg, err := svc.SendPersisted(alice, bob, "see you at nine")

		req.NoError(err)
		req.Equal(alice, msg.From)
		req.Equal(bob, msg.To)
		req.Equal("see you at nine", msg.Body)
		req.NotZero(msg.ID)
		req.False(msg.SentAt.IsZero())
	})

	t.Run("should censor the body before persisting", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDir := mocks.NewMockUserDirectory(ctrl)
		mockConns := mocks.NewMockIConnectionRegistry(ctrl)
		mod, err := moderation.NewModerator([]string{"badger"}, '*', logger)
		req.NoError(err)
		svc := NewMessageService(logger, mockDir, mockConns, mod, nil)

		alice := domain.Identity("1000")
		bob := domain.Identity("2000")

		mockDir.EXPECT().Exists(gomock.Any()).Return(true, nil).Times(2)
		mockConns.EXPECT().Lookup(bob).Return(mocks.NewMockEventSink(ctrl), true)
		mockDir.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		msg, err := svc.SendPersisted(alice, bob, "you badger")

		req.NoError(err)
		req.Equal("you ******", msg.Body)
	})

	t.Run("should reject when recipient is offline without persisting", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDir := mocks.NewMockUserDirectory(ctrl)
		mockConns := mocks.NewMockIConnectionRegistry(ctrl)
		svc := NewMessageService(logger, mockDir, mockConns, nil, nil)

		bob := domain.Identity("2000")

		mockDir.EXPECT().Exists(gomock.Any()).Return(true, nil).Times(2)
		mockConns.EXPECT().Lookup(bob).Return(nil, false)
		mockDir.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.SendPersisted("1000", bob, "anyone there")

		req.ErrorIs(err, errors.ErrRecipientOffline)
	})

	t.Run("should reject when the recipient is not registered", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDir := mocks.NewMockUserDirectory(ctrl)
		mockConns := mocks.NewMockIConnectionRegistry(ctrl)
		svc := NewMessageService(logger, mockDir, mockConns, nil, nil)

		mockDir.EXPECT().Exists(domain.Identity("1000")).Return(true, nil)
		mockDir.EXPECT().Exists(domain.Identity("2000")).Return(false, nil)

		_, err := svc.SendPersisted("1000", "2000", "hello")

		req.ErrorIs(err, errors.ErrUserNotFound)
	})

	t.Run("should reject malformed identities before touching the directory", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDir := mocks.NewMockUserDirectory(ctrl)
		mockConns := mocks.NewMockIConnectionRegistry(ctrl)
		svc := NewMessageService(logger, mockDir, mockConns, nil, nil)

		_, err := svc.SendPersisted("12a4", "2000", "hello")

		req.ErrorIs(err, errors.ErrInvalidIdentity)
	})
}

func TestMessageService_History(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDir := mocks.NewMockUserDirectory(ctrl)
	mockConns := mocks.NewMockIConnectionRegistry(ctrl)
	svc := NewMessageService(logger, mockDir, mockConns, nil, nil)

	t.Run("should return the full log for a known user", func(t *testing.T) {
		req := require.New(t)
		alice := domain.Identity("1000")
		stored := []domain.Message{
			domain.NewMessage(alice, "2000", "first"),
			domain.NewMessage("2000", alice, "second"),
		}

		mockDir.EXPECT().Exists(alice).Return(true, nil)
		mockDir.EXPECT().Messages(alice).Return(stored, nil)

		got, err := svc.History(alice)

		req.NoError(err)
		req.Equal(stored, got)
	})

	t.Run("should fail for an unknown user", func(t *testing.T) {
		req := require.New(t)

		mockDir.EXPECT().Exists(domain.Identity("9999")).Return(false, nil)

		_, err := svc.History("9999")

		req.ErrorIs(err, errors.ErrUserNotFound)
	})

	t.Run("should narrow a conversation to one partner", func(t *testing.T) {
		req := require.New(t)
		alice := domain.Identity("1000")
		bob := domain.Identity("2000")
		stored := []domain.Message{domain.NewMessage(alice, bob, "only us")}

		mockDir.EXPECT().Exists(alice).Return(true, nil)
		mockDir.EXPECT().MessagesWith(alice, bob).Return(stored, nil)

		got, err := svc.Conversation(alice, bob)

		req.NoError(err)
		req.Equal(stored, got)
	})
}
