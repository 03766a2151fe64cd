package models

// DocumentVersion is the current persisted document format version
const DocumentVersion = 1

// Document is the root of the persisted store. It is always saved whole.
type Document struct {
	Version      int            `json:"version"`
	Users        []*User        `json:"users"`
	Instances    []*Instance    `json:"instances"`
	Transactions []*Transaction `json:"transactions"`
	Withdrawals  []*Withdrawal  `json:"withdrawals"`
}

// NewDocument returns a structurally complete empty document
func NewDocument() *Document {
	return &Document{
		Version:      DocumentVersion,
		Users:        []*User{},
		Instances:    []*Instance{},
		Transactions: []*Transaction{},
		Withdrawals:  []*Withdrawal{},
	}
}

// Normalize repairs a decoded document in place so that every collection is
// present and no nil entries survive. It reports whether anything changed.
func (d *Document) Normalize() bool {
	changed := false
	if d.Version < DocumentVersion {
		d.Version = DocumentVersion
		changed = true
	}
	if d.Users == nil {
		d.Users = []*User{}
		changed = true
	}
	if d.Instances == nil {
		d.Instances = []*Instance{}
		changed = true
	}
	if d.Transactions == nil {
		d.Transactions = []*Transaction{}
		changed = true
	}
	if d.Withdrawals == nil {
		d.Withdrawals = []*Withdrawal{}
		changed = true
	}

	users := d.Users[:0]
	for _, u := range d.Users {
		if u != nil && u.DiscordUserID != "" {
			users = append(users, u)
		} else {
			changed = true
		}
	}
	d.Users = users

	instances := d.Instances[:0]
	for _, inst := range d.Instances {
		if inst == nil || inst.ID == "" {
			changed = true
			continue
		}
		if inst.Products == nil {
			inst.Products = []*Product{}
			changed = true
		}
		products := inst.Products[:0]
		for _, p := range inst.Products {
			if p == nil || p.ID == "" {
				changed = true
				continue
			}
			if p.Variants == nil {
				p.Variants = []*Variant{}
				changed = true
			}
			if p.Stock == nil {
				p.Stock = Stock{}
				changed = true
			}
			products = append(products, p)
		}
		inst.Products = products
		instances = append(instances, inst)
	}
	d.Instances = instances

	txs := d.Transactions[:0]
	for _, t := range d.Transactions {
		if t != nil {
			txs = append(txs, t)
		} else {
			changed = true
		}
	}
	d.Transactions = txs

	ws := d.Withdrawals[:0]
	for _, w := range d.Withdrawals {
		if w != nil {
			ws = append(ws, w)
		} else {
			changed = true
		}
	}
	d.Withdrawals = ws

	return changed
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	c := &Document{
		Version:      d.Version,
		Users:        make([]*User, len(d.Users)),
		Instances:    make([]*Instance, len(d.Instances)),
		Transactions: make([]*Transaction, len(d.Transactions)),
		Withdrawals:  make([]*Withdrawal, len(d.Withdrawals)),
	}
	for i, u := range d.Users {
		c.Users[i] = u.Clone()
	}
	for i, inst := range d.Instances {
		c.Instances[i] = inst.Clone()
	}
	for i, t := range d.Transactions {
		c.Transactions[i] = t.Clone()
	}
	for i, w := range d.Withdrawals {
		c.Withdrawals[i] = w.Clone()
	}
	return c
}
