package handler

import (
	"errors"

	"calistenia/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAcademy struct {
	container *do.Injector
}

func (gr *groupAcademy) WeeklyRanking(c echo.Context) error {
	serviceRanking, err := do.Invoke[*services.ServiceRanking](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	top, err := serviceRanking.WeeklyTop(c.Request().Context(), services.RankingSize)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}
	return httpx.RestAbort(c, top, nil)
}

func (gr *groupAcademy) UpcomingClasses(c echo.Context) error {
	serviceClass, err := do.Invoke[*services.ServiceClass](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	classes, err := serviceClass.Upcoming(c.Request().Context())
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}
	return httpx.RestAbort(c, classes, nil)
}

func (gr *groupAcademy) Progress(c echo.Context) error {
	serviceProgress, err := do.Invoke[*services.ServiceProgress](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	userID := c.Param("user")
	if userID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("user is required"), errorx.Invalid))
	}

	progress, err := serviceProgress.Profile(c.Request().Context(), userID)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}
	if progress == nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("user has no progress"), errorx.NotExist))
	}
	return httpx.RestAbort(c, progress, nil)
}
