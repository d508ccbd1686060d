package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	exportsvc "github.com/rwonjong94/anchormoms-web-sub002/services/export"
)

var studentParam = "student"

type roadmapApi struct {
	svc          *roadmap.Service
	defaultYears int
	validate     *validator.Validate
	translator   ut.Translator
}

type valueResponse struct {
	Key   string        `json:"key"`
	Track roadmap.Track `json:"track"`
	Value string        `json:"value"`
}

func registerRoadmapAPI(g *echo.Group, jwt echo.MiddlewareFunc, api roadmapApi) {
	rg := g.Group("/roadmaps", jwt, editorMiddleware())
	rg.POST("", api.create)

	// persisted roadmap
	dg := rg.Group("/:" + studentParam)
	dg.GET("", api.retrieve)
	dg.PUT("", api.replace)
	dg.DELETE("", api.destroy)
	dg.GET("/export", api.export)

	// editing session
	sg := dg.Group("/session")
	sg.POST("", api.load)
	sg.GET("", api.session)
	sg.DELETE("", api.discard)
	sg.PUT("/window", api.changeWindow)
	sg.PUT("/base", api.setBase)
	sg.POST("/toggle", api.toggle)
	sg.GET("/value", api.value)
	sg.POST("/save", api.save)
}

func (api *roadmapApi) years(ctx echo.Context) (int, error) {
	var w Window
	if err := w.Bind(ctx, api.defaultYears); err != nil {
		return 0, err
	}
	return w.Years, nil
}

// Handlers

func (api *roadmapApi) create(ctx echo.Context) error {
	var data roadmap.CreateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Create(ctx.Request().Context(), data.StudentID, data.Base); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, roadmap.Document{Base: data.Base, Extras: roadmap.NewOverrideStore().Flatten()})
}

func (api *roadmapApi) retrieve(ctx echo.Context) error {
	years, err := api.years(ctx)
	if err != nil {
		return err
	}
	rm, err := api.svc.Roadmap(ctx.Request().Context(), ctx.Param(studentParam), years)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rm)
}

func (api *roadmapApi) replace(ctx echo.Context) error {
	var data roadmap.Document
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Document")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Replace(ctx.Request().Context(), ctx.Param(studentParam), data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roadmapApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param(studentParam)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roadmapApi) export(ctx echo.Context) error {
	years, err := api.years(ctx)
	if err != nil {
		return err
	}
	sess, err := api.svc.Preview(ctx.Request().Context(), ctx.Param(studentParam), years)
	if err != nil {
		return err
	}

	view := sess.View()
	wb, err := exportsvc.NewWorkbook(view)
	if err != nil {
		return errors.Wrap(err, "building workbook")
	}
	defer wb.Close()

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportsvc.Filename(view)+`"`)
	resp.Header().Set(echo.HeaderContentType, exportsvc.ContentType)
	resp.WriteHeader(http.StatusOK)
	return errors.Wrap(wb.Write(resp), "writing workbook")
}

func (api *roadmapApi) load(ctx echo.Context) error {
	var data roadmap.WindowRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WindowRequest")
	}
	if data.Years == 0 {
		data.Years = api.defaultYears
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Load(ctx.Request().Context(), ctx.Param(studentParam), data.Years)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *roadmapApi) session(ctx echo.Context) error {
	sess, err := api.svc.Session(ctx.Param(studentParam))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *roadmapApi) discard(ctx echo.Context) error {
	if !api.svc.Discard(ctx.Param(studentParam)) {
		return roadmap.ErrNoSession
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roadmapApi) changeWindow(ctx echo.Context) error {
	var data roadmap.WindowRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WindowRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.ChangeYearWindow(ctx.Request().Context(), ctx.Param(studentParam), data.Years)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *roadmapApi) setBase(ctx echo.Context) error {
	var data roadmap.BaseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BaseRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Session(ctx.Param(studentParam))
	if err != nil {
		return err
	}
	sess.SetBase(data.Base)
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *roadmapApi) toggle(ctx echo.Context) error {
	var data roadmap.ToggleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Session(ctx.Param(studentParam))
	if err != nil {
		return err
	}
	if err = sess.Toggle(data.Edit, data.GroupKey); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *roadmapApi) value(ctx echo.Context) error {
	var data roadmap.ValueRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValueRequest")
	}
	key, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	sess, err := api.svc.Session(ctx.Param(studentParam))
	if err != nil {
		return err
	}
	if !key.InWindow(sess.Years()) {
		return roadmap.ErrGroupOutOfWindow
	}
	return ctx.JSON(http.StatusOK, valueResponse{
		Key:   key.String(),
		Track: data.Track,
		Value: sess.EffectiveValue(data.Track, key),
	})
}

func (api *roadmapApi) save(ctx echo.Context) error {
	sess, err := api.svc.Save(ctx.Request().Context(), ctx.Param(studentParam))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.View())
}
