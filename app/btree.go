package main

import "sort"

// Table and index B-tree traversal: full scans, directed rowid fetches, and
// index-key probes. Grounded on the teacher's generic BTree abstraction
// (btree.go) and its table_raw.go/index_raw.go concrete traversals,
// collapsed into direct recursive functions over the decoded Page variants
// from page.go instead of re-deriving page headers from raw bytes at every
// call site. The goroutine-per-cell fan-out those files used for leaf-page
// decoding is dropped, since this reader never overlaps I/O.

// ScanTable walks every leaf cell of the table rooted at rootPage, in
// rowid order, via the obvious interior/leaf table B-tree descent.
func ScanTable(pager *Pager, rootPage uint32) ([]LeafTableCell, error) {
	data, err := pager.ReadPage(rootPage)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(data, rootPage)
	if err != nil {
		return nil, err
	}

	switch p := page.(type) {
	case LeafTablePage:
		return p.Cells, nil
	case InteriorTablePage:
		var all []LeafTableCell
		for _, cell := range p.Cells {
			childCells, err := ScanTable(pager, cell.LeftChild)
			if err != nil {
				return nil, err
			}
			all = append(all, childCells...)
		}
		rightCells, err := ScanTable(pager, p.RightMost)
		if err != nil {
			return nil, err
		}
		all = append(all, rightCells...)
		return all, nil
	default:
		return nil, NewDatabaseError("scan_table", ErrBadPageKind, map[string]interface{}{
			"page": rootPage,
		})
	}
}

// FetchByRowids fetches exactly the rows named by rowids from the table
// rooted at rootPage, using each interior cell's rowid as an upper bound on
// the rowids reachable through its left child to avoid a full scan.
func FetchByRowids(pager *Pager, rootPage uint32, rowids []int64) ([]LeafTableCell, error) {
	sorted := append([]int64(nil), rowids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make([]LeafTableCell, 0, len(sorted))
	for _, rowid := range sorted {
		cell, found, err := fetchRowid(pager, rootPage, rowid)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, cell)
		}
	}
	return out, nil
}

func fetchRowid(pager *Pager, pageNo uint32, rowid int64) (LeafTableCell, bool, error) {
	data, err := pager.ReadPage(pageNo)
	if err != nil {
		return LeafTableCell{}, false, err
	}
	page, err := decodePage(data, pageNo)
	if err != nil {
		return LeafTableCell{}, false, err
	}

	switch p := page.(type) {
	case LeafTablePage:
		for _, cell := range p.Cells {
			if int64(cell.RowID) == rowid {
				return cell, true, nil
			}
		}
		return LeafTableCell{}, false, nil

	case InteriorTablePage:
		for _, cell := range p.Cells {
			if rowid <= int64(cell.RowID) {
				return fetchRowid(pager, cell.LeftChild, rowid)
			}
		}
		return fetchRowid(pager, p.RightMost, rowid)

	default:
		return LeafTableCell{}, false, NewDatabaseError("fetch_rowid", ErrBadPageKind, map[string]interface{}{
			"page": pageNo,
		})
	}
}

// ProbeIndex returns every rowid whose indexed key equals target, found by
// descending the index B-tree rooted at rootPage with a three-way compare
// at each interior cell: target less than the cell's key means the answer
// (if any) lies strictly to the left and nowhere else on this page, so we
// descend that left subtree and stop; target equal to the cell's key is
// collected, its left subtree is descended too (duplicate keys can repeat
// across sibling cells), and the scan continues rightward; target greater
// than the cell's key only rules out this cell, not the rest of the page,
// so the scan simply continues. The rightmost child is only descended if
// the scan made it past every cell without stopping early.
func ProbeIndex(pager *Pager, rootPage uint32, target string) ([]int64, error) {
	data, err := pager.ReadPage(rootPage)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(data, rootPage)
	if err != nil {
		return nil, err
	}

	switch p := page.(type) {
	case LeafIndexPage:
		var rowids []int64
		for _, cell := range p.Cells {
			if cell.Key == target {
				rowids = append(rowids, cell.RowID)
			}
		}
		return rowids, nil

	case InteriorIndexPage:
		var rowids []int64
		descendRightmost := true
		for _, cell := range p.Cells {
			switch {
			case target < cell.Key:
				// Every later cell's key is >= cell.Key, so none of them (nor
				// the rightmost child) can hold target; this left subtree is
				// the last one worth descending.
				childRowids, err := ProbeIndex(pager, cell.LeftChild, target)
				if err != nil {
					return nil, err
				}
				rowids = append(rowids, childRowids...)
				descendRightmost = false
			case target == cell.Key:
				childRowids, err := ProbeIndex(pager, cell.LeftChild, target)
				if err != nil {
					return nil, err
				}
				rowids = append(rowids, childRowids...)
				rowids = append(rowids, cell.RowID)
				continue
			default: // target > cell.Key: this cell's subtree is too small, keep going
				continue
			}
			break
		}
		if descendRightmost {
			rightRowids, err := ProbeIndex(pager, p.RightMost, target)
			if err != nil {
				return nil, err
			}
			rowids = append(rowids, rightRowids...)
		}
		return rowids, nil

	default:
		return nil, NewDatabaseError("probe_index", ErrBadPageKind, map[string]interface{}{
			"page": rootPage,
		})
	}
}
