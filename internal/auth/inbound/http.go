package inbound

import (
	"context"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/auth/usecase"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
)

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	ForgotPassword(ctx context.Context, in usecase.ForgotPasswordInput) (*usecase.ForgotPasswordOutput, error)
	Stats(ctx context.Context) (*entity.Stats, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST(router.RouteLogin, end.Login)
	r.POST(router.RouteRegister, end.Register)
	r.POST(router.RouteForgotPassword, end.ForgotPassword)

	// OTP
	r.POST(router.RouteOTPSend, end.SendOTP)
	r.POST(router.RouteOTPVerify, end.VerifyOTP)
	r.GET(router.RouteOTPStats, end.Stats) // need authenticated & authorization
}
