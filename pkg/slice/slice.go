// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with the generic
helpers the chat views rely on.
*/
package slice

// Map maps a slice of type T to a slice of type U using the provided transformation function.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// Union concatenates the inputs keeping the first occurrence of each element.
// The result is never nil.
func Union[T comparable](inputs ...[]T) []T {
	seen := make(map[T]struct{})
	result := make([]T, 0)

	for _, input := range inputs {
		for _, v := range input {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}

// Without returns input minus every element present in exclude, preserving order.
func Without[T comparable](input []T, exclude ...T) []T {
	skip := make(map[T]struct{}, len(exclude))
	for _, v := range exclude {
		skip[v] = struct{}{}
	}

	result := make([]T, 0, len(input))
	for _, v := range input {
		if _, drop := skip[v]; !drop {
			result = append(result, v)
		}
	}
	return result
}
