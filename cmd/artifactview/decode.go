package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/forensic-go/windecode/pkg/lnk"
	"github.com/forensic-go/windecode/pkg/ost"
	"github.com/forensic-go/windecode/pkg/tasks"
)

// artifact is one decoded file shown in the browser's list.
type artifact struct {
	Path    string
	Kind    string
	Summary string
	Detail  []string
	Err     error
}

func loadArtifact(path string) artifact {
	a := artifact{Path: path}

	b, err := os.ReadFile(path)
	if err != nil {
		a.Err = err
		return a
	}

	switch {
	case strings.EqualFold(ext(path), ".lnk"):
		a.Kind = "lnk"
		link, err := lnk.Parse(b)
		if err != nil {
			a.Err = err
			return a
		}
		a.Summary = link.Strings.Description
		if a.Summary == "" {
			a.Summary = link.Strings.RelativePath
		}
		a.Detail = []string{
			fmt.Sprintf("target size:   %d", link.Header.TargetSize),
			fmt.Sprintf("working dir:   %s", link.Strings.WorkingDir),
			fmt.Sprintf("arguments:     %s", link.Strings.CommandLineArgs),
			fmt.Sprintf("icon location: %s", link.Strings.IconLocation),
			fmt.Sprintf("shell items:   %d", len(link.IDList)),
			fmt.Sprintf("extra blocks:  %d", len(link.ExtraBlocks)),
		}
		if link.LinkInfo != nil {
			a.Detail = append(a.Detail, fmt.Sprintf("local path:    %s%s", link.LinkInfo.LocalBasePath, link.LinkInfo.CommonPathSuffix))
		}

	case strings.EqualFold(ext(path), ".job"):
		a.Kind = "job"
		job, err := tasks.ParseJob(b)
		if err != nil {
			a.Err = err
			return a
		}
		a.Summary = job.Application
		a.Detail = []string{
			fmt.Sprintf("parameters:  %s", job.Parameters),
			fmt.Sprintf("working dir: %s", job.WorkingDir),
			fmt.Sprintf("author:      %s", job.Author),
			fmt.Sprintf("comment:     %s", job.Comment),
			fmt.Sprintf("last run:    %s", job.LastRunTime),
			fmt.Sprintf("triggers:    %d", len(job.Triggers)),
		}

	case strings.EqualFold(ext(path), ".xml"):
		a.Kind = "task"
		f, err := os.Open(path)
		if err != nil {
			a.Err = err
			return a
		}
		defer f.Close()
		task, err := tasks.ParseTask(f)
		if err != nil {
			a.Err = err
			return a
		}
		a.Summary = task.Registration.Description
		a.Detail = []string{
			fmt.Sprintf("author:            %s", task.Registration.Author),
			fmt.Sprintf("actions:           %d", len(task.Actions)),
			fmt.Sprintf("time triggers:     %d", len(task.Triggers.Time)),
			fmt.Sprintf("logon triggers:    %d", len(task.Triggers.Logon)),
			fmt.Sprintf("calendar triggers: %d", len(task.Triggers.Calendar)),
			fmt.Sprintf("event triggers:    %d", len(task.Triggers.Event)),
		}

	case strings.EqualFold(ext(path), ".ost"), strings.EqualFold(ext(path), ".pst"):
		a.Kind = "ost"
		if len(b) < 0x230 {
			a.Err = ost.ErrBadHeader
			return a
		}
		h, err := ost.ParseHeader(b[:0x230])
		if err != nil {
			a.Err = err
			return a
		}
		a.Summary = fmt.Sprintf("page size %d", h.PageSize)
		a.Detail = []string{
			fmt.Sprintf("NBT root: %#x", h.NBTRoot),
			fmt.Sprintf("BBT root: %#x", h.BBTRoot),
		}

	default:
		a.Kind = "unknown"
		a.Err = fmt.Errorf("no decoder registered for %s", path)
	}

	return a
}

func ext(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}
