package pos

import (
	"context"
	"errors"
	"sync"
)

// memStore is an in-memory RegisterStore and SaleStore. CommitSale keeps
// the all-or-nothing behaviour of the database store.
type memStore struct {
	mu        sync.Mutex
	registers map[uint]*CashRegister
	sales     []Sale
	stock     map[uint]int
	nextID    uint

	commitErr error
	commits   int
}

func newMemStore() *memStore {
	return &memStore{registers: map[uint]*CashRegister{}, stock: map[uint]int{}}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func cloneRegister(r *CashRegister) *CashRegister {
	cp := *r
	cp.TotalPayments = ZeroPayments()
	for k, v := range r.TotalPayments {
		cp.TotalPayments[k] = v
	}
	cp.Sales = append([]Sale(nil), r.Sales...)
	return &cp
}

func (m *memStore) find(employeeID uint, day string) *CashRegister {
	for _, r := range m.registers {
		if r.EmployeeID == employeeID && r.Date == day {
			return r
		}
	}
	return nil
}

func (m *memStore) EnsureRegister(ctx context.Context, reg *CashRegister) (*CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.find(reg.EmployeeID, reg.Date); r != nil {
		return cloneRegister(r), nil
	}
	reg.ID = m.id()
	m.registers[reg.ID] = cloneRegister(reg)
	return cloneRegister(reg), nil
}

func (m *memStore) CreateRegister(ctx context.Context, reg *CashRegister) (*CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(reg.EmployeeID, reg.Date) != nil {
		return nil, ErrRegisterExists
	}
	reg.ID = m.id()
	m.registers[reg.ID] = cloneRegister(reg)
	return cloneRegister(reg), nil
}

func (m *memStore) GetRegister(ctx context.Context, id uint) (*CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRegister(r), nil
}

func (m *memStore) UpdateRegister(ctx context.Context, id uint, apply func(*CashRegister) error) (*CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registers[id]
	if !ok {
		return nil, ErrNotFound
	}
	work := cloneRegister(r)
	if err := apply(work); err != nil {
		return nil, err
	}
	m.registers[id] = work
	return cloneRegister(work), nil
}

func (m *memStore) ListRegisters(ctx context.Context, employeeID uint, from, to string) ([]CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CashRegister
	for _, r := range m.registers {
		if r.EmployeeID == employeeID && r.Date >= from && r.Date <= to {
			out = append(out, *cloneRegister(r))
		}
	}
	return out, nil
}

func (m *memStore) CommitSale(ctx context.Context, registerID uint, sale *Sale) (*Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	if m.commitErr != nil {
		return nil, m.commitErr
	}

	r, ok := m.registers[registerID]
	if !ok {
		return nil, ErrNotFound
	}
	work := cloneRegister(r)
	stock := make(map[uint]int, len(m.stock))
	for k, v := range m.stock {
		stock[k] = v
	}

	saved := *sale
	saved.ID = m.id()
	saved.CashRegisterID = registerID
	for _, ln := range saved.ProductLines() {
		if stock[ln.ID] < ln.Quantity {
			return nil, ErrOutOfStock
		}
		stock[ln.ID] -= ln.Quantity
	}
	if err := work.AppendSale(saved); err != nil {
		return nil, err
	}

	m.registers[registerID] = work
	m.stock = stock
	m.sales = append(m.sales, saved)
	return &saved, nil
}

var errBoom = errors.New("boom")
