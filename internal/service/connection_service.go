package service

import (
	"context"

	"feedhub/internal/models"
	"feedhub/internal/repository"
	"feedhub/internal/validation"

	"github.com/jinzhu/copier"
)

const connectionMessageMaxLength = 300

// ConnectionService manages connection requests between users.
type ConnectionService struct {
	connRepo repository.ConnectionRepository
	userRepo repository.UserRepository
}

func NewConnectionService(connRepo repository.ConnectionRepository, userRepo repository.UserRepository) *ConnectionService {
	return &ConnectionService{connRepo: connRepo, userRepo: userRepo}
}

type ConnectionRequestInput struct {
	UserID   uint
	TargetID uint
	Message  string
}

// toConnectionView projects conn as seen by viewerID.
func toConnectionView(conn *models.UserConnection, viewerID uint) (models.ConnectionView, error) {
	var view models.ConnectionView
	if err := copier.Copy(&view, conn); err != nil {
		return models.ConnectionView{}, models.NewInternalError(err)
	}
	view.ConnectedUser = conn.Other(viewerID).Summary()
	return view, nil
}

func (s *ConnectionService) find(ctx context.Context, connectionID uint) (*models.UserConnection, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, models.NewContentNotFoundError("Connection", connectionID)
	}
	return conn, nil
}

func (s *ConnectionService) Request(ctx context.Context, in ConnectionRequestInput) (*models.ConnectionView, error) {
	if err := requireIDs(in.UserID, in.TargetID); err != nil {
		return nil, err
	}
	if in.UserID == in.TargetID {
		return nil, models.NewValidationError("You cannot connect with yourself")
	}
	if err := validation.ValidateMaxLength("message", in.Message, connectionMessageMaxLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	target, err := s.userRepo.FindByID(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, models.NewUserNotFoundError(in.TargetID)
	}
	existing, err := s.connRepo.FindBetween(ctx, in.UserID, in.TargetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Connection already exists")
	}

	conn := &models.UserConnection{UserID: in.UserID, ConnectedUserID: in.TargetID, Message: in.Message}
	if err := s.connRepo.Create(ctx, conn); err != nil {
		return nil, err
	}
	conn.ConnectedUser = *target

	view, err := toConnectionView(conn, in.UserID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Accept marks a pending request as accepted. Only its recipient may accept.
func (s *ConnectionService) Accept(ctx context.Context, userID, connectionID uint) (*models.ConnectionView, error) {
	if err := requireIDs(userID, connectionID); err != nil {
		return nil, err
	}
	conn, err := s.find(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.ConnectedUserID != userID {
		return nil, models.NewUnauthorizedError("Only the recipient can accept a connection")
	}

	if !conn.IsAccepted {
		if err := s.connRepo.Accept(ctx, conn.ID); err != nil {
			return nil, err
		}
		conn.IsAccepted = true
	}

	view, err := toConnectionView(conn, userID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Remove deletes a connection or request. Either side may remove it.
func (s *ConnectionService) Remove(ctx context.Context, userID, connectionID uint) error {
	if err := requireIDs(userID, connectionID); err != nil {
		return err
	}
	conn, err := s.find(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.UserID != userID && conn.ConnectedUserID != userID {
		return models.NewUnauthorizedError("You are not part of this connection")
	}
	return s.connRepo.Delete(ctx, conn.ID)
}

func (s *ConnectionService) List(ctx context.Context, userID uint, accepted bool) ([]models.ConnectionView, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	conns, err := s.connRepo.ListForUser(ctx, userID, accepted)
	if err != nil {
		return nil, err
	}

	views := make([]models.ConnectionView, 0, len(conns))
	for i := range conns {
		view, err := toConnectionView(&conns[i], userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
