// Package project provides the service layer that applies schema edits,
// persists them and records an audit trail.
package project

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/audit"
	"github.com/fentz26/blockwright/internal/metadata"
	"github.com/fentz26/blockwright/internal/regen"
	"github.com/fentz26/blockwright/internal/schema"
	"github.com/fentz26/blockwright/internal/selection"
)

// Service provides the project business logic.
type Service struct {
	meta  *metadata.Store
	regen *regen.Orchestrator
	pdr   *audit.PDRWriter
	log   *zap.Logger
}

// NewService creates a new project service. The metadata store should be
// wired to orch so saves regenerate scripts.
func NewService(meta *metadata.Store, orch *regen.Orchestrator, pdr *audit.PDRWriter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		meta:  meta,
		regen: orch,
		pdr:   pdr,
		log:   log,
	}
}

// Open builds the metadata store, orchestrator and service for the project
// at dir.
func Open(dir string, strict bool, pdr *audit.PDRWriter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	orch := regen.New(dir, regen.WithLogger(log), regen.WithStrict(strict))
	return NewService(metadata.New(dir, orch, log), orch, pdr, log)
}

// Name returns the project name.
func (s *Service) Name() string {
	return s.meta.ProjectName()
}

// Init loads the project metadata, creating the default document when it is
// missing. It reports whether the document was created.
func (s *Service) Init() (schema.ProjectMeta, bool, error) {
	created := !s.meta.Exists()
	meta, err := s.meta.Load()
	if err != nil {
		return schema.ProjectMeta{}, false, err
	}
	if created {
		s.audit("project.init", map[string]string{"path": s.meta.Path()}, audit.OutcomeSuccess, meta.Name, "")
	}
	return meta, created, nil
}

// Load returns the current metadata.
func (s *Service) Load() (schema.ProjectMeta, error) {
	return s.meta.Load()
}

// Apply loads the schema, applies one edit and saves the result. A rejected
// edit leaves the document untouched. When the save succeeds but script
// regeneration fails, the new schema is returned along with the error.
func (s *Service) Apply(edit schema.Edit, policy schema.ConflictPolicy) (schema.ProjectMeta, error) {
	meta, err := s.meta.Load()
	if err != nil {
		return schema.ProjectMeta{}, err
	}

	next, err := schema.Apply(meta, edit, policy)
	if err != nil {
		s.record(edit, policy, meta.Name, err)
		return schema.ProjectMeta{}, fmt.Errorf("%s: %w", edit.Kind(), err)
	}

	err = s.meta.Save(next)
	s.record(edit, policy, meta.Name, err)
	if err != nil {
		s.log.Warn("edit saved with errors", zap.String("edit", edit.Kind()), zap.Error(err))
		return next, err
	}
	s.log.Debug("edit applied", zap.String("edit", edit.Kind()), zap.String("policy", policy.String()))
	return next, nil
}

func (s *Service) record(edit schema.Edit, policy schema.ConflictPolicy, project string, err error) {
	details := edit.Kind()
	if err != nil {
		details += ": " + err.Error()
	}
	inputs := map[string]interface{}{"kind": edit.Kind(), "edit": edit, "policy": policy.String()}
	s.audit("schema.edit", inputs, audit.Outcome(err), project, details)
}

// audit writes a PDR. A failed write is logged, never returned.
func (s *Service) audit(action string, inputs interface{}, outcome, project, details string) {
	if _, err := s.pdr.Record(action, inputs, outcome, project, details); err != nil {
		s.log.Warn("record audit entry", zap.String("action", action), zap.Error(err))
	}
}

// RegenerateResult is the outcome of an explicit regeneration.
type RegenerateResult struct {
	Report  *regen.Report
	Orphans []string
	Pruned  []string
}

// Regenerate rewrites every script. With prune, scripts no suite maps to
// are deleted; otherwise they are only reported.
func (s *Service) Regenerate(prune bool) (*RegenerateResult, error) {
	meta, err := s.meta.Load()
	if err != nil {
		return nil, err
	}

	res := &RegenerateResult{}
	res.Report, err = s.regen.Regenerate(meta)
	if err != nil {
		return res, err
	}

	if prune {
		res.Pruned, err = s.regen.Prune(meta)
		if len(res.Pruned) > 0 {
			s.audit("scripts.prune", res.Pruned, audit.Outcome(err), meta.Name, fmt.Sprintf("%d removed", len(res.Pruned)))
		}
		return res, err
	}
	res.Orphans, err = s.regen.Orphans(meta)
	return res, err
}

// Matrix builds a fresh selection matrix for targets.
func (s *Service) Matrix(targets []string) (*selection.Matrix, error) {
	meta, err := s.meta.Load()
	if err != nil {
		return nil, err
	}
	return selection.Build(meta, targets), nil
}
