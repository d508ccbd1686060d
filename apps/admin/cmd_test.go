package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	echoapi "github.com/rwonjong94/anchormoms-web-sub002/apps/api/echo"
	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	exportsvc "github.com/rwonjong94/anchormoms-web-sub002/services/export"
	dummydb "github.com/rwonjong94/anchormoms-web-sub002/storage/database/dummy"
	"github.com/rwonjong94/anchormoms-web-sub002/tests"
)

var base = roadmap.BaseSettings{StartAcademicYear: 2024, StartGrade: "초3"}

func setup(t *testing.T) (*commandLine, roadmap.Repository, *bytes.Buffer) {
	mem, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewRoadmapRepository(mem)

	calendars := roadmap.NewStaticCalendars()
	calendars.Set("s1", roadmap.NewTestCalendar(2024, 3))

	conf := &core.Config{
		AppName:            "Roadmap Admin",
		SecretKey:          "secret",
		JWTExpirationDelta: time.Hour,
		Database:           core.DBConfig{MigrationsDir: "migrations"},
		Roadmap:            core.RoadmapConfig{DefaultYears: 2, MaxYears: 3},
	}

	var out bytes.Buffer
	return &commandLine{
		conf: conf,
		out:  &out,
		db:   new(sql.DB),
		svc:  roadmap.NewService(repo, calendars, core.NopLogger{}, conf.Roadmap.MaxYears),
	}, repo, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(db *sql.DB, dir, command string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "calendar", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("memory store", func(t *testing.T) {
		cli.db = nil
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.EqualError(t, err, "migrations need the postgres store")
	})
}

func Test_commandLine_help(t *testing.T) {
	cli, _, _ := setup(t)
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "init without args", args: []string{"init"}, wantErr: errHelp},
		{name: "init without grade", args: []string{"init", "-student", "s1", "-start-year", "2024"}, wantErr: errHelp},
		{name: "show without student", args: []string{"show"}, wantErr: errHelp},
		{name: "diff without student", args: []string{"diff", "-years", "2"}, wantErr: errHelp},
		{name: "export without student", args: []string{"export"}, wantErr: errHelp},
		{name: "token without subject", args: []string{"token", "-name", "Teacher"}, wantErr: errHelp},
		{name: "-h", args: []string{"show", "-h"}, wantErr: errHelp},
		{name: "bad flag value", args: []string{"show", "-student", "s1", "-years", "two"}, wantErrStr: `invalid value "two" for flag -years: parse error`},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_init(t *testing.T) {
	cli, repo, out := setup(t)

	tests := []cliTest{
		{name: "created", args: []string{"init", "-student", "s1", "-start-year", "2024", "-grade", "초3", "-promotion-month", "3"}},
		{name: "exists", args: []string{"init", "-student", "s1", "-start-year", "2024", "-grade", "초3"}, wantErrStr: roadmap.ErrRoadmapExists.Error()},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("invalid year", func(t *testing.T) {
		err := cli.run([]string{"admin", "init", "-student", "s2", "-start-year", "1990", "-grade", "초3"})
		assert.IsType(t, validator.ValidationErrors{}, err)
		_, err = repo.GetRoadmap(context.Background(), "s2")
		assert.Equal(t, roadmap.ErrNotFound, err)
	})

	doc, err := repo.GetRoadmap(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, roadmap.BaseSettings{StartAcademicYear: 2024, StartGrade: "초3", GradePromotionMonth: 3}, doc.Base)
	assert.Contains(t, out.String(), "roadmap created for s1")
}

func Test_commandLine_show(t *testing.T) {
	cli, repo, out := setup(t)
	testutil.CreateRoadmap(t, repo, "s1", base, roadmap.Extras{
		SubjectGroups: []roadmap.SubjectEntry{{YearOffset: 0, GroupIndex: 1, Value: "중1-1"}},
	})

	require.NoError(t, cli.run([]string{"admin", "show", "-student", "s1", "-years", "1"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1+roadmap.GroupsPerYear)
	assert.True(t, strings.HasPrefix(lines[0], "GROUP"))
	assert.Contains(t, lines[1], "초3-1")
	assert.Contains(t, lines[2], "중1-1*")
	assert.Contains(t, lines[2], "6-8")

	err := cli.run([]string{"admin", "show", "-student", "s2"})
	assert.Equal(t, roadmap.ErrNotFound, errors.Cause(err))
}

func Test_commandLine_diff(t *testing.T) {
	cli, repo, out := setup(t)
	testutil.CreateRoadmap(t, repo, "s1", base)

	require.NoError(t, cli.run([]string{"admin", "diff", "-student", "s1"}))
	assert.Equal(t, "no overrides\n", out.String())

	testutil.CreateRoadmap(t, repo, "s1", base, roadmap.Extras{
		ThinkingLevels: []roadmap.ThinkingLevelEntry{{YearOffset: 1, GroupIndex: 3, Level: 12}},
	})
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "diff", "-student", "s1"}))
	diff := out.String()
	assert.Contains(t, diff, "--- base")
	assert.Contains(t, diff, "+++ effective")
	assert.Contains(t, diff, "-1-3 thinking: WMO LV. 8\n")
	assert.Contains(t, diff, "+1-3 thinking: WMO LV. 12\n")
	assert.NotContains(t, diff, "subject")
}

func Test_commandLine_export(t *testing.T) {
	cli, repo, out := setup(t)
	testutil.CreateRoadmap(t, repo, "s1", base)

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "s1.xlsx")
		require.NoError(t, cli.run([]string{"admin", "export", "-student", "s1", "-years", "3", "-out", path}))
		assert.Contains(t, out.String(), path+" written")

		wb, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer wb.Close()
		rows, err := wb.GetRows(exportsvc.SheetName)
		require.NoError(t, err)
		assert.Len(t, rows, 1+3*roadmap.GroupsPerYear)
	})

	t.Run("standard output", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "export", "-student", "s1"}))
		wb, err := excelize.OpenReader(out)
		require.NoError(t, err)
		defer wb.Close()
		rows, err := wb.GetRows(exportsvc.SheetName)
		require.NoError(t, err)
		assert.Len(t, rows, 1+2*roadmap.GroupsPerYear)
	})

	t.Run("too many years", func(t *testing.T) {
		err := cli.run([]string{"admin", "export", "-student", "s1", "-years", "4"})
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})
}

func Test_commandLine_token(t *testing.T) {
	cli, _, out := setup(t)
	require.NoError(t, cli.run([]string{"admin", "token", "-subject", "t1", "-name", "Teacher"}))

	claims := new(echoapi.Claims)
	_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.Subject)
	assert.Equal(t, "Teacher", claims.Name)
	assert.Equal(t, "Roadmap Admin", claims.Issuer)
	assert.NotEmpty(t, claims.Id)
}
