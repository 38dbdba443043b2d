// Package memory implementa los puertos de persistencia en memoria. Se usa en
// pruebas y con STORAGE_DRIVER=memory; tiene la misma semántica transaccional
// que el adaptador PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Store guarda materiales y movimientos. Las transacciones se serializan con mu
// y trabajan sobre una copia del estado que solo se publica si fn no falla.
type Store struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	materials map[string]entity.Material
	movements []entity.Movement
	keys      map[string]int // idempotency_key -> índice en movements
}

// NewStore construye un Store vacío.
func NewStore() *Store {
	return &Store{state: &state{
		materials: make(map[string]entity.Material),
		keys:      make(map[string]int),
	}}
}

func (s *state) clone() *state {
	c := &state{
		materials: make(map[string]entity.Material, len(s.materials)),
		// el libro es de solo inserción: basta limitar la capacidad para que append copie
		movements: s.movements[:len(s.movements):len(s.movements)],
		keys:      make(map[string]int, len(s.keys)),
	}
	for id, m := range s.materials {
		c.materials[id] = m
	}
	for k, i := range s.keys {
		c.keys[k] = i
	}
	return c
}

// Run ejecuta fn con repositorios atados a una copia del estado; si fn devuelve
// nil la copia reemplaza al estado, si no se descarta (rollback).
func (s *Store) Run(ctx context.Context, fn func(
	materials repository.MaterialRepository,
	movements repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&MaterialRepo{store: s, tx: work}, &MovementRepo{store: s, tx: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Materials repositorio de materiales fuera de transacción.
func (s *Store) Materials() *MaterialRepo { return &MaterialRepo{store: s} }

// Movements repositorio del libro fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{store: s} }

// read ejecuta fn sobre el estado de la tx o, fuera de ella, con el lock de lectura.
func read(store *Store, tx *state, fn func(st *state)) {
	if tx != nil {
		fn(tx)
		return
	}
	store.mu.RLock()
	defer store.mu.RUnlock()
	fn(store.state)
}

// write igual que read pero con lock exclusivo. Las comprobaciones de fn van
// antes de cualquier mutación, así que un error no deja estado parcial.
func write(store *Store, tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return fn(store.state)
}
